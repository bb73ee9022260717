package evo

import (
	"context"
	"fmt"

	"evonet/internal/model"
)

type ModificationKind string

const (
	KindCopyNode              ModificationKind = "copy_node"
	KindAddNode               ModificationKind = "add_node"
	KindAddLink               ModificationKind = "add_link"
	KindDeleteNode            ModificationKind = "delete_node"
	KindDeleteLink            ModificationKind = "delete_link"
	KindModifyWeight          ModificationKind = "modify_weight"
	KindChangeNodeActivation  ModificationKind = "change_node_activation"
	KindChangeNodeIntegration ModificationKind = "change_node_integration"
)

// Kinds lists every modification in scheduling order before shuffling.
var Kinds = []ModificationKind{
	KindCopyNode,
	KindAddNode,
	KindAddLink,
	KindDeleteNode,
	KindDeleteLink,
	KindModifyWeight,
	KindChangeNodeActivation,
	KindChangeNodeIntegration,
}

// Operator applies one structural or weight modification to a model in place
// and reports the names of the entities it created, changed or removed.
type Operator interface {
	Name() string
	Apply(ctx context.Context, m *model.Model, uniqueString string) ([]string, error)
}

type replicatorOperator struct {
	kind  ModificationKind
	apply func(m *model.Model, uniqueString string) ([]string, error)
}

func (o replicatorOperator) Name() string {
	return string(o.kind)
}

func (o replicatorOperator) Apply(_ context.Context, m *model.Model, uniqueString string) ([]string, error) {
	return o.apply(m, uniqueString)
}

// Operator resolves the operator for kind bound to this replicator.
func (r *Replicator) Operator(kind ModificationKind) (Operator, error) {
	var apply func(*model.Model, string) ([]string, error)
	switch kind {
	case KindCopyNode:
		apply = r.copyNode
	case KindAddNode:
		apply = r.addNode
	case KindAddLink:
		apply = r.addLink
	case KindDeleteNode:
		apply = r.deleteNode
	case KindDeleteLink:
		apply = r.deleteLink
	case KindModifyWeight:
		apply = func(m *model.Model, _ string) ([]string, error) {
			return r.modifyWeight(m, r.counts.WeightChanges)
		}
	case KindChangeNodeActivation:
		apply = r.changeNodeActivation
	case KindChangeNodeIntegration:
		apply = r.changeNodeIntegration
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownModification, kind)
	}
	return replicatorOperator{kind: kind, apply: apply}, nil
}
