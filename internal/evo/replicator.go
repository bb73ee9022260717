package evo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"evonet/internal/model"
	"evonet/internal/nn"
)

var (
	// ErrNoCandidate means a selection found nothing to mutate. The
	// modification is skipped and the batch continues.
	ErrNoCandidate = errors.New("no candidate available")
	// ErrNoInputLinks is reported by add_node when the chosen node has no
	// input link to route through.
	ErrNoInputLinks        = fmt.Errorf("%w: node has no input links", ErrNoCandidate)
	ErrUnknownModification = errors.New("unknown modification")
	ErrInvalidCounts       = errors.New("invalid modification counts")
)

const (
	DefaultWeightChangeStdev = 0.1
)

// Replicator selects nodes and links at random and applies structural and
// weight modifications to a Model. A Replicator and the Model it mutates
// belong to one goroutine.
type Replicator struct {
	Rand   *rand.Rand
	Namer  Namer
	Logger *slog.Logger

	// WeightChangeStdev is the standard deviation of modify_weight
	// perturbations.
	WeightChangeStdev float64
	// PruneIterations caps the prune passes run after deletions.
	PruneIterations int
	// ShareCopiedWeights makes copy_node reuse the copied link's weight
	// instead of duplicating it.
	ShareCopiedWeights bool
	// LinkDistanceWeight biases add_link sinks toward nodes close to the
	// source. Zero selects sinks uniformly.
	LinkDistanceWeight float64
	// WeightChangePolicy, when set, overrides the weight change count each
	// generation based on the model's size.
	WeightChangePolicy MutationCountPolicy

	// LinkSourceFilter and LinkSinkFilter bound add_link endpoints.
	LinkSourceFilter model.TypeFilter
	LinkSinkFilter   model.TypeFilter

	// DefaultWeightInit and DefaultSolver configure fresh weights when no
	// existing weight serves as a template.
	DefaultWeightInit nn.WeightInit
	DefaultSolver     nn.Solver

	counts           ModificationCounts
	ranges           *ModificationRanges
	nodeActivations  []nn.Activation
	nodeIntegrations []nn.Integration
	history          []model.LineageRecord
}

// NewReplicator returns a replicator seeded from seed with counter-based
// names and a discarding logger.
func NewReplicator(seed int64) *Replicator {
	return &Replicator{
		Rand:              rand.New(rand.NewSource(seed)),
		Namer:             &CounterNamer{},
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		WeightChangeStdev: DefaultWeightChangeStdev,
		PruneIterations:   model.DefaultPruneIterations,
		LinkSourceFilter:  model.TypeFilter{Exclude: []model.NodeType{model.NodeTypeBias, model.NodeTypeOutput}},
		LinkSinkFilter:    model.TypeFilter{Exclude: []model.NodeType{model.NodeTypeInput, model.NodeTypeBias}},
		DefaultWeightInit: nn.RandomWeightInit(1, 1),
		DefaultSolver:     nn.SGDSolver(0.01, 0.9),
	}
}

func (r *Replicator) validate() error {
	if r == nil || r.Rand == nil {
		return errors.New("random source is required")
	}
	if r.Namer == nil {
		return errors.New("namer is required")
	}
	return nil
}

func (r *Replicator) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

func (r *Replicator) SetNNodeCopies(n int) { r.counts.NodeCopies = n }
func (r *Replicator) SetNNodeAdditions(n int) { r.counts.NodeAdditions = n }
func (r *Replicator) SetNLinkAdditions(n int) { r.counts.LinkAdditions = n }
func (r *Replicator) SetNNodeDeletions(n int) { r.counts.NodeDeletions = n }
func (r *Replicator) SetNLinkDeletions(n int) { r.counts.LinkDeletions = n }
func (r *Replicator) SetNWeightChanges(n int) { r.counts.WeightChanges = n }
func (r *Replicator) SetNNodeActivationChanges(n int) { r.counts.NodeActivationChanges = n }
func (r *Replicator) SetNNodeIntegrationChanges(n int) { r.counts.NodeIntegrationChanges = n }

func (r *Replicator) SetModificationCounts(c ModificationCounts) error {
	if err := c.validate(); err != nil {
		return err
	}
	r.counts = c
	return nil
}

func (r *Replicator) ModificationCounts() ModificationCounts {
	return r.counts
}

// SetRandomModifications makes every ModifyModel call draw fresh counts from
// ranges. A nil ranges value returns to fixed counts.
func (r *Replicator) SetRandomModifications(ranges *ModificationRanges) error {
	if ranges != nil {
		if err := ranges.validate(); err != nil {
			return err
		}
	}
	r.ranges = ranges
	return nil
}

// SetNodeActivations sets the palette add_node and change_node_activation
// draw from.
func (r *Replicator) SetNodeActivations(palette []nn.Activation) {
	r.nodeActivations = append([]nn.Activation(nil), palette...)
}

func (r *Replicator) SetNodeIntegrations(palette []nn.Integration) {
	r.nodeIntegrations = append([]nn.Integration(nil), palette...)
}

func (r *Replicator) NodeActivations() []nn.Activation {
	return append([]nn.Activation(nil), r.nodeActivations...)
}

func (r *Replicator) NodeIntegrations() []nn.Integration {
	return append([]nn.Integration(nil), r.nodeIntegrations...)
}

// History returns the lineage recorded by ModifyModel since the last reset.
func (r *Replicator) History() []model.LineageRecord {
	return append([]model.LineageRecord(nil), r.history...)
}

func (r *Replicator) ResetHistory() {
	r.history = nil
}
