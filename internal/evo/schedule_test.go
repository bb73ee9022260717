package evo

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"evonet/internal/genotype"
	"evonet/internal/model"
	"evonet/internal/nn"
)

func TestMakeRandomModificationOrder(t *testing.T) {
	r := NewReplicator(11)
	if err := r.SetModificationCounts(ModificationCounts{
		NodeCopies:    2,
		NodeAdditions: 1,
		LinkDeletions: 3,
		WeightChanges: 7,
	}); err != nil {
		t.Fatalf("set counts: %v", err)
	}
	order := r.MakeRandomModificationOrder()
	if len(order) != 7 {
		t.Fatalf("expected 7 entries, got %d: %v", len(order), order)
	}
	seen := map[ModificationKind]int{}
	for _, kind := range order {
		seen[kind]++
	}
	if seen[KindCopyNode] != 2 || seen[KindAddNode] != 1 || seen[KindDeleteLink] != 3 || seen[KindModifyWeight] != 1 {
		t.Fatalf("unexpected order composition: %v", seen)
	}

	if err := r.SetModificationCounts(ModificationCounts{NodeCopies: -1}); !errors.Is(err, ErrInvalidCounts) {
		t.Fatalf("expected ErrInvalidCounts, got %v", err)
	}
}

func TestMakeRandomModificationOrderShuffles(t *testing.T) {
	r := NewReplicator(5)
	r.SetNNodeCopies(4)
	r.SetNLinkAdditions(4)
	first := r.MakeRandomModificationOrder()
	for i := 0; i < 20; i++ {
		next := r.MakeRandomModificationOrder()
		for j := range next {
			if next[j] != first[j] {
				return
			}
		}
	}
	t.Fatal("expected shuffled order to vary across calls")
}

func TestModifyModelRecordsSkippedModifications(t *testing.T) {
	m := model.New("io", "io")
	if err := m.AddNodes(
		testNode("A", model.NodeTypeInput, nn.ActivationLinear),
		testNode("C", model.NodeTypeOutput, nn.ActivationLinear),
	); err != nil {
		t.Fatalf("add nodes: %v", err)
	}
	r := NewReplicator(1)
	r.SetNNodeDeletions(1)
	r.SetNLinkAdditions(1)
	if err := r.ModifyModel(context.Background(), m, "g1"); err != nil {
		t.Fatalf("modify model: %v", err)
	}
	history := r.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 lineage records, got %+v", history)
	}
	for _, rec := range history {
		switch rec.Operation {
		case string(KindDeleteNode):
			if !rec.Skipped || rec.Reason == "" {
				t.Fatalf("delete_node must be skipped with a reason: %+v", rec)
			}
		case string(KindAddLink):
			if rec.Skipped || len(rec.Entities) != 2 {
				t.Fatalf("add_link must apply and report its link and weight: %+v", rec)
			}
		default:
			t.Fatalf("unexpected record %+v", rec)
		}
		if rec.ModelID != "io" || rec.Generation != "g1" || rec.SchemaVersion != model.LineageSchemaVersion {
			t.Fatalf("record metadata mismatch: %+v", rec)
		}
	}
	if m.LinkCount() != 1 {
		t.Fatalf("expected A -> C link, got %v", m.LinkNames())
	}

	r.ResetHistory()
	if len(r.History()) != 0 {
		t.Fatal("expected empty history after reset")
	}
}

type fixedNamer string

func (n fixedNamer) Next() string { return string(n) }

func TestModifyModelAbortsOnDuplicateName(t *testing.T) {
	m := model.New("io", "io")
	if err := m.AddNodes(
		testNode("A", model.NodeTypeInput, nn.ActivationLinear),
		testNode("C", model.NodeTypeOutput, nn.ActivationLinear),
	); err != nil {
		t.Fatalf("add nodes: %v", err)
	}
	r := NewReplicator(1)
	r.Namer = fixedNamer("x")
	r.SetNLinkAdditions(3)

	err := r.ModifyModel(context.Background(), m, "g")
	if !errors.Is(err, model.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if errors.Is(err, ErrNoCandidate) {
		t.Fatalf("duplicate names must not be treated as a skip: %v", err)
	}
	if !strings.HasPrefix(err.Error(), string(KindAddLink)+": ") {
		t.Fatalf("expected error wrapped with the operator name, got %q", err)
	}
	if m.LinkCount() != 1 || m.WeightCount() != 1 {
		t.Fatalf("operators after the failure must not run: links=%v weights=%v", m.LinkNames(), m.WeightNames())
	}
	history := r.History()
	if len(history) != 1 || history[0].Skipped {
		t.Fatalf("expected only the first add_link in history, got %+v", history)
	}
}

func TestModifyModelHonorsCancellation(t *testing.T) {
	m := chainModel(t)
	r := NewReplicator(1)
	r.SetNLinkAdditions(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.ModifyModel(ctx, m, "g1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if m.LinkCount() != 2 {
		t.Fatalf("cancelled batch must not apply modifications")
	}
}

func TestModifyModelRequiresRandomSource(t *testing.T) {
	r := &Replicator{Namer: &CounterNamer{}}
	if err := r.ModifyModel(context.Background(), chainModel(t), "g1"); err == nil {
		t.Fatal("expected missing random source error")
	}
}

func TestModifyModelRandomRanges(t *testing.T) {
	r := NewReplicator(8)
	ranges := &ModificationRanges{
		NodeAdditions: CountRange{Min: 1, Max: 3},
		LinkAdditions: CountRange{Min: 0, Max: 2},
		WeightChanges: CountRange{Min: 2, Max: 2},
	}
	if err := r.SetRandomModifications(ranges); err != nil {
		t.Fatalf("set ranges: %v", err)
	}
	m := chainModel(t)
	for gen := 0; gen < 10; gen++ {
		if err := r.ModifyModel(context.Background(), m, "g"); err != nil {
			t.Fatalf("generation %d: %v", gen, err)
		}
		c := r.ModificationCounts()
		if c.NodeAdditions < 1 || c.NodeAdditions > 3 || c.LinkAdditions > 2 || c.WeightChanges != 2 || c.NodeCopies != 0 {
			t.Fatalf("generation %d counts outside ranges: %+v", gen, c)
		}
	}

	bad := &ModificationRanges{NodeCopies: CountRange{Min: 3, Max: 1}}
	if err := r.SetRandomModifications(bad); !errors.Is(err, ErrInvalidCounts) {
		t.Fatalf("expected ErrInvalidCounts, got %v", err)
	}
}

func TestModifyModelWeightChangePolicy(t *testing.T) {
	r := NewReplicator(2)
	r.WeightChangePolicy = ConstMutationCount{Count: 4}
	m := chainModel(t)
	if err := r.ModifyModel(context.Background(), m, "g1"); err != nil {
		t.Fatalf("modify model: %v", err)
	}
	if r.ModificationCounts().WeightChanges != 4 {
		t.Fatalf("expected policy to set 4 weight changes, got %+v", r.ModificationCounts())
	}
	history := r.History()
	if len(history) != 1 || history[0].Operation != string(KindModifyWeight) {
		t.Fatalf("expected single modify_weight record, got %+v", history)
	}
}

// TestModifyModelPreservesInvariants runs random generations over baseline
// models and checks references, pruning and orphan weights after each one.
func TestModifyModelPreservesInvariants(t *testing.T) {
	spec := genotype.BaselineSpec{
		NInputs:           3,
		NHidden:           2,
		NOutputs:          2,
		WithBias:          true,
		HiddenActivations: []string{nn.ActivationReLU, nn.ActivationTanH},
		WeightInit:        nn.RandomWeightInit(1, 1),
		Solver:            nn.AdamSolver(0.01, 0.9, 0.999, 1e-8),
	}
	for seed := int64(1); seed <= 30; seed++ {
		rng := rand.New(rand.NewSource(seed))
		m, err := genotype.ConstructBaseline("inv", spec, rng)
		if err != nil {
			t.Fatalf("seed %d baseline: %v", seed, err)
		}
		r := NewReplicator(seed)
		r.LinkDistanceWeight = float64(seed % 3)
		r.ShareCopiedWeights = seed%2 == 0
		r.SetNodeActivations([]nn.Activation{nn.MustActivation(nn.ActivationSigmoid), nn.MustActivation(nn.ActivationLeakyReLU)})
		r.SetNodeIntegrations([]nn.Integration{nn.MustIntegration(nn.IntegrationSum), nn.MustIntegration(nn.IntegrationProd)})

		for gen := 0; gen < 15; gen++ {
			if err := r.SetModificationCounts(ModificationCounts{
				NodeCopies:             rng.Intn(3),
				NodeAdditions:          rng.Intn(3),
				LinkAdditions:          rng.Intn(4),
				NodeDeletions:          rng.Intn(3),
				LinkDeletions:          rng.Intn(4),
				WeightChanges:          rng.Intn(5),
				NodeActivationChanges:  rng.Intn(2),
				NodeIntegrationChanges: rng.Intn(2),
			}); err != nil {
				t.Fatalf("seed %d set counts: %v", seed, err)
			}
			if err := r.ModifyModel(context.Background(), m, "gen"); err != nil {
				t.Fatalf("seed %d gen %d modify: %v", seed, gen, err)
			}
			assertModelInvariants(t, m)
		}
	}
}

func assertModelInvariants(t *testing.T, m *model.Model) {
	t.Helper()
	if err := m.CheckIntegrity(); err != nil {
		t.Fatalf("dangling reference: %v", err)
	}
	if removed := m.PruneModel(model.DefaultPruneIterations); removed != 0 {
		t.Fatalf("prune after a batch must be idempotent, removed %d", removed)
	}
	for _, name := range m.WeightNames() {
		if len(m.LinksReferencingWeight(name)) == 0 {
			t.Fatalf("weight %s has no referencing link", name)
		}
	}
	for _, n := range m.Nodes() {
		if n.Type.Protected() {
			continue
		}
		if len(m.InputLinks(n.Name))+len(m.OutputLinks(n.Name)) == 0 {
			t.Fatalf("non-protected node %s has no links", n.Name)
		}
	}
	for _, l := range m.Links() {
		for _, endpoint := range []string{l.SourceNodeName, l.SinkNodeName} {
			n, ok := m.Node(endpoint)
			if !ok {
				t.Fatalf("link %s endpoint %s missing", l.Name, endpoint)
			}
			if !n.Type.Valid() {
				t.Fatalf("node %s has invalid type", n.Name)
			}
		}
	}
}
