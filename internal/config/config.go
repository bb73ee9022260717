package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/ini.v1"

	"evonet/internal/evo"
	"evonet/internal/genotype"
	"evonet/internal/model"
	"evonet/internal/nn"
)

// Config stores the settings of an evolution run.
type Config struct {
	Replicator ReplicatorConfig
	Baseline   BaselineConfig
	Run        RunConfig
}

// ReplicatorConfig holds per-generation modification counts and the policies
// of the mutation operators.
type ReplicatorConfig struct {
	NNodeCopies             int `ini:"n_node_copies"`
	NNodeAdditions          int `ini:"n_node_additions"`
	NLinkAdditions          int `ini:"n_link_additions"`
	NNodeDeletions          int `ini:"n_node_deletions"`
	NLinkDeletions          int `ini:"n_link_deletions"`
	NWeightChanges          int `ini:"n_weight_changes"`
	NNodeActivationChanges  int `ini:"n_node_activation_changes"`
	NNodeIntegrationChanges int `ini:"n_node_integration_changes"`

	// RandomModifications draws every count uniformly from [min, max] each
	// generation. A missing *_range key defaults to [0, n_*].
	RandomModifications         bool  `ini:"random_modifications"`
	NodeCopiesRange             []int `ini:"n_node_copies_range" delim:" "`
	NodeAdditionsRange          []int `ini:"n_node_additions_range" delim:" "`
	LinkAdditionsRange          []int `ini:"n_link_additions_range" delim:" "`
	NodeDeletionsRange          []int `ini:"n_node_deletions_range" delim:" "`
	LinkDeletionsRange          []int `ini:"n_link_deletions_range" delim:" "`
	WeightChangesRange          []int `ini:"n_weight_changes_range" delim:" "`
	NodeActivationChangesRange  []int `ini:"n_node_activation_changes_range" delim:" "`
	NodeIntegrationChangesRange []int `ini:"n_node_integration_changes_range" delim:" "`

	WeightChangeStdev       float64  `ini:"weight_change_stdev"`
	WeightChangePolicy      string   `ini:"weight_change_policy"`
	WeightChangePolicyParam float64  `ini:"weight_change_policy_param"`
	WeightChangeMax         int      `ini:"weight_change_max"`
	PruneIterations         int      `ini:"prune_iterations"`
	ShareCopiedWeights      bool     `ini:"share_copied_weights"`
	LinkDistanceWeight      float64  `ini:"link_distance_weight"`
	NodeActivations         []string `ini:"node_activations" delim:" "`
	NodeIntegrations        []string `ini:"node_integrations" delim:" "`
	Namer                   string   `ini:"namer"` // "counter" or "uuid"
}

// BaselineConfig describes the starting topology.
type BaselineConfig struct {
	NInputs           int      `ini:"n_inputs"`
	NHidden           int      `ini:"n_hidden"`
	NOutputs          int      `ini:"n_outputs"`
	WithBias          bool     `ini:"with_bias"`
	HiddenActivations []string `ini:"hidden_activations" delim:" "`
	OutputActivation  string   `ini:"output_activation"`
	Integration       string   `ini:"integration"`
	WeightInit        string   `ini:"weight_init"` // "random" or "const"
	WeightInitValue   float64  `ini:"weight_init_value"`
	Solver            string   `ini:"solver"` // "sgd", "adam" or "dummy"
	LearningRate      float64  `ini:"learning_rate"`
	Momentum          float64  `ini:"momentum"`
	Momentum2         float64  `ini:"momentum2"`
	Delta             float64  `ini:"delta"`
	GradClip          float64  `ini:"grad_clip"`
	ModuleName        string   `ini:"module_name"`
}

// RunConfig holds CLI run settings.
type RunConfig struct {
	Generations int    `ini:"generations"`
	Seed        int64  `ini:"seed"`
	Store       string `ini:"store"` // "memory" or "sqlite"
	DBPath      string `ini:"db_path"`
	RunID       string `ini:"run_id"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Baseline.WithBias = true
	c.Baseline.NInputs = 2
	c.Baseline.NHidden = 2
	c.Baseline.NOutputs = 1
	c.Replicator.NNodeAdditions = 1
	c.Replicator.NLinkAdditions = 1
	c.Replicator.NWeightChanges = 2
	c.applyDefaults()
	return c
}

// Load reads an INI configuration file.
func Load(filePath string) (*Config, error) {
	c, err := load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return c, nil
}

// Parse reads INI configuration from data.
func Parse(data []byte) (*Config, error) {
	return load(data)
}

func load(source any) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	if err := file.Section("Replicator").MapTo(&c.Replicator); err != nil {
		return nil, fmt.Errorf("failed to map [Replicator] section: %w", err)
	}
	if err := file.Section("Baseline").MapTo(&c.Baseline); err != nil {
		return nil, fmt.Errorf("failed to map [Baseline] section: %w", err)
	}
	if err := file.Section("Run").MapTo(&c.Run); err != nil {
		return nil, fmt.Errorf("failed to map [Run] section: %w", err)
	}
	// Bias is on unless explicitly disabled.
	if !file.Section("Baseline").HasKey("with_bias") {
		c.Baseline.WithBias = true
	}

	c.clean()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) clean() {
	c.Replicator.NodeActivations = cleanList(c.Replicator.NodeActivations)
	c.Replicator.NodeIntegrations = cleanList(c.Replicator.NodeIntegrations)
	c.Replicator.WeightChangePolicy = cleanIniString(c.Replicator.WeightChangePolicy)
	c.Replicator.Namer = cleanIniString(c.Replicator.Namer)
	c.Baseline.HiddenActivations = cleanList(c.Baseline.HiddenActivations)
	c.Baseline.OutputActivation = cleanIniString(c.Baseline.OutputActivation)
	c.Baseline.Integration = cleanIniString(c.Baseline.Integration)
	c.Baseline.WeightInit = cleanIniString(c.Baseline.WeightInit)
	c.Baseline.Solver = cleanIniString(c.Baseline.Solver)
	c.Run.Store = cleanIniString(c.Run.Store)
	c.Run.DBPath = strings.TrimSpace(c.Run.DBPath)
	c.Run.RunID = strings.TrimSpace(c.Run.RunID)
}

func (c *Config) applyDefaults() {
	if c.Replicator.WeightChangeStdev == 0 {
		c.Replicator.WeightChangeStdev = evo.DefaultWeightChangeStdev
	}
	if c.Replicator.PruneIterations == 0 {
		c.Replicator.PruneIterations = model.DefaultPruneIterations
	}
	if c.Replicator.Namer == "" {
		c.Replicator.Namer = "counter"
	}
	if c.Baseline.OutputActivation == "" {
		c.Baseline.OutputActivation = nn.ActivationLinear
	}
	if c.Baseline.Integration == "" {
		c.Baseline.Integration = nn.IntegrationSum
	}
	if c.Baseline.WeightInit == "" {
		c.Baseline.WeightInit = nn.WeightInitRandom
	}
	if c.Baseline.Solver == "" {
		c.Baseline.Solver = nn.SolverSGD
	}
	if c.Baseline.LearningRate == 0 {
		c.Baseline.LearningRate = 0.01
	}
	if c.Baseline.Momentum == 0 {
		c.Baseline.Momentum = 0.9
	}
	if c.Baseline.Momentum2 == 0 {
		c.Baseline.Momentum2 = 0.999
	}
	if c.Baseline.Delta == 0 {
		c.Baseline.Delta = 1e-8
	}
	if c.Run.Generations == 0 {
		c.Run.Generations = 10
	}
	if c.Run.Seed == 0 {
		c.Run.Seed = 1
	}
	if c.Run.Store == "" {
		c.Run.Store = "memory"
	}
	if c.Run.RunID == "" {
		c.Run.RunID = "evonet"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	r := c.Replicator
	counts := map[string]int{
		"n_node_copies":              r.NNodeCopies,
		"n_node_additions":           r.NNodeAdditions,
		"n_link_additions":           r.NLinkAdditions,
		"n_node_deletions":           r.NNodeDeletions,
		"n_link_deletions":           r.NLinkDeletions,
		"n_weight_changes":           r.NWeightChanges,
		"n_node_activation_changes":  r.NNodeActivationChanges,
		"n_node_integration_changes": r.NNodeIntegrationChanges,
	}
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		if counts[key] < 0 {
			return fmt.Errorf("config error: %s cannot be negative", key)
		}
	}
	ranges := r.rangeFields()
	for _, key := range slices.Sorted(maps.Keys(ranges)) {
		rng := ranges[key]
		if len(rng) != 0 && len(rng) != 2 {
			return fmt.Errorf("config error: %s must be 'min max'", key)
		}
		if len(rng) == 2 && (rng[0] < 0 || rng[1] < rng[0]) {
			return fmt.Errorf("config error: %s must satisfy 0 <= min <= max", key)
		}
	}
	if r.WeightChangeStdev < 0 {
		return fmt.Errorf("config error: weight_change_stdev cannot be negative")
	}
	if r.PruneIterations <= 0 {
		return fmt.Errorf("config error: prune_iterations must be positive")
	}
	if r.LinkDistanceWeight < 0 {
		return fmt.Errorf("config error: link_distance_weight cannot be negative")
	}
	if r.Namer != "uuid" && r.Namer != "counter" {
		return fmt.Errorf("config error: invalid namer '%s', must be one of 'uuid', 'counter'", r.Namer)
	}
	if _, err := evo.MutationCountPolicyByName(r.WeightChangePolicy, r.WeightChangePolicyParam, r.WeightChangeMax); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for _, name := range r.NodeActivations {
		if _, err := nn.NewActivation(name); err != nil {
			return fmt.Errorf("config error: node_activations: %w", err)
		}
	}
	for _, name := range r.NodeIntegrations {
		if _, err := nn.NewIntegration(name); err != nil {
			return fmt.Errorf("config error: node_integrations: %w", err)
		}
	}

	b := c.Baseline
	if b.NInputs <= 0 {
		return fmt.Errorf("config error: n_inputs must be positive")
	}
	if b.NOutputs <= 0 {
		return fmt.Errorf("config error: n_outputs must be positive")
	}
	if b.NHidden < 0 {
		return fmt.Errorf("config error: n_hidden cannot be negative")
	}
	for _, name := range append([]string{b.OutputActivation}, b.HiddenActivations...) {
		if _, err := nn.NewActivation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if _, err := nn.NewIntegration(b.Integration); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := (nn.WeightInit{Name: b.WeightInit}).Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := (nn.Solver{Name: b.Solver}).Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Run.Generations < 0 {
		return fmt.Errorf("config error: generations cannot be negative")
	}
	if c.Run.Store != "memory" && c.Run.Store != "sqlite" {
		return fmt.Errorf("config error: invalid store '%s', must be one of 'memory', 'sqlite'", c.Run.Store)
	}
	if c.Run.Store == "sqlite" && c.Run.DBPath == "" {
		return fmt.Errorf("config error: db_path is required for the sqlite store")
	}
	return nil
}

// Counts returns the fixed per-generation modification counts.
func (r ReplicatorConfig) Counts() evo.ModificationCounts {
	return evo.ModificationCounts{
		NodeCopies:             r.NNodeCopies,
		NodeAdditions:          r.NNodeAdditions,
		LinkAdditions:          r.NLinkAdditions,
		NodeDeletions:          r.NNodeDeletions,
		LinkDeletions:          r.NLinkDeletions,
		WeightChanges:          r.NWeightChanges,
		NodeActivationChanges:  r.NNodeActivationChanges,
		NodeIntegrationChanges: r.NNodeIntegrationChanges,
	}
}

// Ranges returns the random modification ranges, nil when disabled.
func (r ReplicatorConfig) Ranges() *evo.ModificationRanges {
	if !r.RandomModifications {
		return nil
	}
	return &evo.ModificationRanges{
		NodeCopies:             toRange(r.NodeCopiesRange, r.NNodeCopies),
		NodeAdditions:          toRange(r.NodeAdditionsRange, r.NNodeAdditions),
		LinkAdditions:          toRange(r.LinkAdditionsRange, r.NLinkAdditions),
		NodeDeletions:          toRange(r.NodeDeletionsRange, r.NNodeDeletions),
		LinkDeletions:          toRange(r.LinkDeletionsRange, r.NLinkDeletions),
		WeightChanges:          toRange(r.WeightChangesRange, r.NWeightChanges),
		NodeActivationChanges:  toRange(r.NodeActivationChangesRange, r.NNodeActivationChanges),
		NodeIntegrationChanges: toRange(r.NodeIntegrationChangesRange, r.NNodeIntegrationChanges),
	}
}

// Apply configures rep with these settings.
func (r ReplicatorConfig) Apply(rep *evo.Replicator) error {
	if err := rep.SetModificationCounts(r.Counts()); err != nil {
		return err
	}
	if err := rep.SetRandomModifications(r.Ranges()); err != nil {
		return err
	}
	policy, err := evo.MutationCountPolicyByName(r.WeightChangePolicy, r.WeightChangePolicyParam, r.WeightChangeMax)
	if err != nil {
		return err
	}
	rep.WeightChangePolicy = policy
	rep.WeightChangeStdev = r.WeightChangeStdev
	rep.PruneIterations = r.PruneIterations
	rep.ShareCopiedWeights = r.ShareCopiedWeights
	rep.LinkDistanceWeight = r.LinkDistanceWeight
	if r.Namer == "counter" {
		rep.Namer = &evo.CounterNamer{}
	} else {
		rep.Namer = evo.UUIDNamer{}
	}

	activations := make([]nn.Activation, 0, len(r.NodeActivations))
	for _, name := range r.NodeActivations {
		a, err := nn.NewActivation(name)
		if err != nil {
			return err
		}
		activations = append(activations, a)
	}
	integrations := make([]nn.Integration, 0, len(r.NodeIntegrations))
	for _, name := range r.NodeIntegrations {
		g, err := nn.NewIntegration(name)
		if err != nil {
			return err
		}
		integrations = append(integrations, g)
	}
	rep.SetNodeActivations(activations)
	rep.SetNodeIntegrations(integrations)
	return nil
}

// Spec converts the baseline settings to a construction spec.
func (b BaselineConfig) Spec() genotype.BaselineSpec {
	wi := nn.RandomWeightInit(1, 1)
	if b.WeightInit == nn.WeightInitConst {
		wi = nn.ConstWeightInit(b.WeightInitValue)
	}
	var solver nn.Solver
	switch b.Solver {
	case nn.SolverAdam:
		solver = nn.AdamSolver(b.LearningRate, b.Momentum, b.Momentum2, b.Delta)
	case nn.SolverDummy:
		solver = nn.DummySolver()
	default:
		solver = nn.SGDSolver(b.LearningRate, b.Momentum)
	}
	solver.GradClip = b.GradClip
	return genotype.BaselineSpec{
		NInputs:           b.NInputs,
		NHidden:           b.NHidden,
		NOutputs:          b.NOutputs,
		WithBias:          b.WithBias,
		HiddenActivations: b.HiddenActivations,
		OutputActivation:  b.OutputActivation,
		Integration:       b.Integration,
		WeightInit:        wi,
		Solver:            solver,
		ModuleName:        b.ModuleName,
	}
}

func (r ReplicatorConfig) rangeFields() map[string][]int {
	return map[string][]int{
		"n_node_copies_range":              r.NodeCopiesRange,
		"n_node_additions_range":           r.NodeAdditionsRange,
		"n_link_additions_range":           r.LinkAdditionsRange,
		"n_node_deletions_range":           r.NodeDeletionsRange,
		"n_link_deletions_range":           r.LinkDeletionsRange,
		"n_weight_changes_range":           r.WeightChangesRange,
		"n_node_activation_changes_range":  r.NodeActivationChangesRange,
		"n_node_integration_changes_range": r.NodeIntegrationChangesRange,
	}
}

func toRange(values []int, fallback int) evo.CountRange {
	if len(values) == 2 {
		return evo.CountRange{Min: values[0], Max: values[1]}
	}
	return evo.CountRange{Min: 0, Max: fallback}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = cleanIniString(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cleanIniString trims whitespace and surrounding quotes.
func cleanIniString(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
