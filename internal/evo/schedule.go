package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"evonet/internal/model"
)

// ModificationCounts are the per-generation operator invocation counts.
type ModificationCounts struct {
	NodeCopies             int
	NodeAdditions          int
	LinkAdditions          int
	NodeDeletions          int
	LinkDeletions          int
	WeightChanges          int
	NodeActivationChanges  int
	NodeIntegrationChanges int
}

func (c ModificationCounts) validate() error {
	for kind, n := range c.byKind() {
		if n < 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidCounts, kind, n)
		}
	}
	return nil
}

// Total is the number of modifications the counts request. Weight changes
// contribute their individual draws.
func (c ModificationCounts) Total() int {
	total := 0
	for _, n := range c.byKind() {
		total += n
	}
	return total
}

func (c ModificationCounts) byKind() map[ModificationKind]int {
	return map[ModificationKind]int{
		KindCopyNode:              c.NodeCopies,
		KindAddNode:               c.NodeAdditions,
		KindAddLink:               c.LinkAdditions,
		KindDeleteNode:            c.NodeDeletions,
		KindDeleteLink:            c.LinkDeletions,
		KindModifyWeight:          c.WeightChanges,
		KindChangeNodeActivation:  c.NodeActivationChanges,
		KindChangeNodeIntegration: c.NodeIntegrationChanges,
	}
}

// CountRange is an inclusive [Min, Max] bound on one count.
type CountRange struct {
	Min int
	Max int
}

func (c CountRange) draw(r *Replicator) int {
	if c.Max <= c.Min {
		return c.Min
	}
	return c.Min + r.Rand.Intn(c.Max-c.Min+1)
}

// ModificationRanges makes each generation's counts uniform draws.
type ModificationRanges struct {
	NodeCopies             CountRange
	NodeAdditions          CountRange
	LinkAdditions          CountRange
	NodeDeletions          CountRange
	LinkDeletions          CountRange
	WeightChanges          CountRange
	NodeActivationChanges  CountRange
	NodeIntegrationChanges CountRange
}

func (m *ModificationRanges) validate() error {
	ranges := []CountRange{
		m.NodeCopies, m.NodeAdditions, m.LinkAdditions, m.NodeDeletions,
		m.LinkDeletions, m.WeightChanges, m.NodeActivationChanges, m.NodeIntegrationChanges,
	}
	for i, c := range ranges {
		if c.Min < 0 || c.Max < c.Min {
			return fmt.Errorf("%w: range %s [%d, %d]", ErrInvalidCounts, Kinds[i], c.Min, c.Max)
		}
	}
	return nil
}

func (m *ModificationRanges) draw(r *Replicator) ModificationCounts {
	return ModificationCounts{
		NodeCopies:             m.NodeCopies.draw(r),
		NodeAdditions:          m.NodeAdditions.draw(r),
		LinkAdditions:          m.LinkAdditions.draw(r),
		NodeDeletions:          m.NodeDeletions.draw(r),
		LinkDeletions:          m.LinkDeletions.draw(r),
		WeightChanges:          m.WeightChanges.draw(r),
		NodeActivationChanges:  m.NodeActivationChanges.draw(r),
		NodeIntegrationChanges: m.NodeIntegrationChanges.draw(r),
	}
}

// MakeRandomModificationOrder expands the current counts into a shuffled
// operator sequence. All weight changes share one modify_weight entry.
func (r *Replicator) MakeRandomModificationOrder() []ModificationKind {
	c := r.counts
	order := make([]ModificationKind, 0, c.Total())
	appendN := func(kind ModificationKind, n int) {
		for i := 0; i < n; i++ {
			order = append(order, kind)
		}
	}
	appendN(KindCopyNode, c.NodeCopies)
	appendN(KindAddNode, c.NodeAdditions)
	appendN(KindAddLink, c.LinkAdditions)
	appendN(KindDeleteNode, c.NodeDeletions)
	appendN(KindDeleteLink, c.LinkDeletions)
	if c.WeightChanges > 0 {
		order = append(order, KindModifyWeight)
	}
	appendN(KindChangeNodeActivation, c.NodeActivationChanges)
	appendN(KindChangeNodeIntegration, c.NodeIntegrationChanges)
	r.Rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// ModifyModel applies one generation of modifications to m in place.
// Operators that find no candidate are skipped; any other operator error
// aborts the batch. The model is pruned and checked once the batch ends.
func (r *Replicator) ModifyModel(ctx context.Context, m *model.Model, uniqueString string) error {
	if err := r.validate(); err != nil {
		return err
	}
	if m == nil {
		return errors.New("model is required")
	}
	if r.ranges != nil {
		r.counts = r.ranges.draw(r)
	}
	if r.WeightChangePolicy != nil {
		n, err := r.WeightChangePolicy.MutationCount(m, r.Rand)
		if err != nil {
			return fmt.Errorf("weight change policy %s: %w", r.WeightChangePolicy.Name(), err)
		}
		r.counts.WeightChanges = n
	}

	log := r.logger().With("model", m.ID, "unique", uniqueString)
	applied, skipped := 0, 0
	for _, kind := range r.MakeRandomModificationOrder() {
		if err := ctx.Err(); err != nil {
			return err
		}
		op, err := r.Operator(kind)
		if err != nil {
			return err
		}
		entities, err := op.Apply(ctx, m, uniqueString)
		record := model.LineageRecord{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: model.LineageSchemaVersion,
				CodecVersion:  model.LineageCodecVersion,
			},
			ModelID:    m.ID,
			Generation: uniqueString,
			Operation:  op.Name(),
			Entities:   entities,
		}
		switch {
		case err == nil:
			applied++
		case errors.Is(err, ErrNoCandidate):
			skipped++
			record.Skipped = true
			record.Reason = err.Error()
			log.Debug("modification skipped", slog.String("operator", op.Name()), slog.String("reason", err.Error()))
		default:
			log.Error("modification aborted", slog.String("operator", op.Name()), slog.Any("error", err))
			return fmt.Errorf("%s: %w", op.Name(), err)
		}
		r.history = append(r.history, record)
	}

	pruned := m.PruneModel(r.pruneIterations())
	if err := m.CheckIntegrity(); err != nil {
		log.Error("model integrity check failed", slog.Any("error", err))
		return err
	}
	log.Debug("model modified",
		slog.Int("applied", applied),
		slog.Int("skipped", skipped),
		slog.Int("pruned", pruned),
		slog.Int("nodes", m.NodeCount()),
		slog.Int("links", m.LinkCount()),
		slog.Int("weights", m.WeightCount()),
	)
	return nil
}
