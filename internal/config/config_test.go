package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonet/internal/evo"
	"evonet/internal/nn"
)

const sampleConfig = `
[Replicator]
n_node_copies      = 1
n_node_additions   = 2
n_link_additions   = 3
n_weight_changes   = 4
random_modifications = true
n_link_additions_range = 1 5
weight_change_stdev  = 0.5
prune_iterations   = 50
share_copied_weights = true
link_distance_weight = 1.5
node_activations   = relu  tanh sigmoid
node_integrations  = sum prod
namer              = counter
weight_change_policy = weight_count_linear
weight_change_policy_param = 0.25
weight_change_max = 8

[Baseline]
n_inputs  = 3
n_hidden  = 4
n_outputs = 2
hidden_activations = elu relu
solver = adam
learning_rate = 0.001

[Run]
generations = 25
seed = 42
store = sqlite
db_path = runs.db
run_id = trial-1
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evonet.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMapsSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	r := cfg.Replicator
	assert.Equal(t, evo.ModificationCounts{NodeCopies: 1, NodeAdditions: 2, LinkAdditions: 3, WeightChanges: 4}, r.Counts())
	assert.Equal(t, 50, r.PruneIterations)
	assert.True(t, r.ShareCopiedWeights)
	assert.Equal(t, 1.5, r.LinkDistanceWeight)
	assert.Equal(t, []string{"relu", "tanh", "sigmoid"}, r.NodeActivations)
	assert.Equal(t, []string{"sum", "prod"}, r.NodeIntegrations)
	assert.Equal(t, "counter", r.Namer)

	ranges := r.Ranges()
	require.NotNil(t, ranges)
	assert.Equal(t, evo.CountRange{Min: 1, Max: 5}, ranges.LinkAdditions)
	assert.Equal(t, evo.CountRange{Min: 0, Max: 2}, ranges.NodeAdditions)

	assert.Equal(t, 3, cfg.Baseline.NInputs)
	assert.True(t, cfg.Baseline.WithBias, "bias defaults to on")
	assert.Equal(t, nn.ActivationLinear, cfg.Baseline.OutputActivation)
	assert.Equal(t, 25, cfg.Run.Generations)
	assert.Equal(t, int64(42), cfg.Run.Seed)
	assert.Equal(t, "sqlite", cfg.Run.Store)
	assert.Equal(t, "trial-1", cfg.Run.RunID)
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[Baseline]\nn_inputs = 1\nn_outputs = 1\nwith_bias = false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Baseline.WithBias)
	assert.Equal(t, evo.DefaultWeightChangeStdev, cfg.Replicator.WeightChangeStdev)
	assert.Equal(t, "counter", cfg.Replicator.Namer)
	assert.Equal(t, nn.SolverSGD, cfg.Baseline.Solver)
	assert.Equal(t, "memory", cfg.Run.Store)
	assert.Equal(t, 10, cfg.Run.Generations)
	assert.Nil(t, cfg.Replicator.Ranges())
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]string{
		"negative count":    "[Replicator]\nn_node_deletions = -1\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n",
		"bad range":         "[Replicator]\nn_node_copies_range = 4 2\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n",
		"bad palette":       "[Replicator]\nnode_activations = relu softplus\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n",
		"bad namer":         "[Replicator]\nnamer = clock\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n",
		"bad policy":        "[Replicator]\nweight_change_policy = cubic\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n",
		"no inputs":         "[Baseline]\nn_outputs = 1\n",
		"bad solver":        "[Baseline]\nn_inputs = 1\nn_outputs = 1\nsolver = rmsprop\n",
		"sqlite needs path": "[Baseline]\nn_inputs = 1\nn_outputs = 1\n[Run]\nstore = sqlite\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestApplyConfiguresReplicator(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	rep := evo.NewReplicator(1)
	require.NoError(t, cfg.Replicator.Apply(rep))
	assert.Equal(t, 0.5, rep.WeightChangeStdev)
	assert.Equal(t, 50, rep.PruneIterations)
	assert.True(t, rep.ShareCopiedWeights)
	assert.IsType(t, &evo.CounterNamer{}, rep.Namer)
	assert.IsType(t, evo.LinearMutationCount{}, rep.WeightChangePolicy)
	require.Len(t, rep.NodeActivations(), 3)
	assert.Equal(t, nn.ActivationTanH, rep.NodeActivations()[1].Name)
	assert.Equal(t, nn.IntegrationProd, rep.NodeIntegrations()[1].Name)
}

func TestBaselineSpec(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	spec := cfg.Baseline.Spec()
	assert.Equal(t, nn.AdamSolver(0.001, 0.9, 0.999, 1e-8), spec.Solver)
	assert.Equal(t, nn.RandomWeightInit(1, 1), spec.WeightInit)
	assert.Equal(t, []string{"elu", "relu"}, spec.HiddenActivations)

	def := Default()
	require.NoError(t, def.Validate())
	assert.Equal(t, nn.SGDSolver(0.01, 0.9), def.Baseline.Spec().Solver)
}

func TestNamerSelection(t *testing.T) {
	cfg, err := Parse([]byte("[Replicator]\nnamer = uuid\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n"))
	require.NoError(t, err)
	rep := evo.NewReplicator(1)
	require.NoError(t, cfg.Replicator.Apply(rep))
	assert.IsType(t, evo.UUIDNamer{}, rep.Namer)

	cfg, err = Parse([]byte("[Baseline]\nn_inputs = 1\nn_outputs = 1\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Replicator.Apply(rep))
	assert.IsType(t, &evo.CounterNamer{}, rep.Namer, "counter names keep seeded runs reproducible")
}

func TestValidateReportsRangesInKeyOrder(t *testing.T) {
	content := "[Replicator]\nn_weight_changes_range = 5 1\nn_link_additions_range = 3 1\nn_node_copies_range = 2 1\n[Baseline]\nn_inputs = 1\nn_outputs = 1\n"
	for i := 0; i < 20; i++ {
		_, err := Parse([]byte(content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "n_link_additions_range")
	}
}
