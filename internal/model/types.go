package model

import (
	"fmt"

	"evonet/internal/nn"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type NodeType string

const (
	NodeTypeInput     NodeType = "input"
	NodeTypeBias      NodeType = "bias"
	NodeTypeHidden    NodeType = "hidden"
	NodeTypeOutput    NodeType = "output"
	NodeTypeRecursive NodeType = "recursive"
	NodeTypeZero      NodeType = "zero"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeInput, NodeTypeBias, NodeTypeHidden, NodeTypeOutput, NodeTypeRecursive, NodeTypeZero:
		return true
	}
	return false
}

// Protected node types are never removed by pruning or deletion operators.
func (t NodeType) Protected() bool {
	return t == NodeTypeInput || t == NodeTypeOutput || t == NodeTypeBias
}

type NodeStatus string

const (
	NodeStatusDeactivated NodeStatus = "deactivated"
	NodeStatusInitialized NodeStatus = "initialized"
	NodeStatusActivated   NodeStatus = "activated"
	NodeStatusCorrected   NodeStatus = "corrected"
)

func (s NodeStatus) Valid() bool {
	switch s {
	case NodeStatusDeactivated, NodeStatusInitialized, NodeStatusActivated, NodeStatusCorrected:
		return true
	}
	return false
}

type Node struct {
	Name        string
	Type        NodeType
	Status      NodeStatus
	Activation  nn.Activation
	Integration nn.Integration
	ModuleName  string
}

func NewNode(name string, nodeType NodeType, activation nn.Activation, integration nn.Integration) Node {
	return Node{
		Name:        name,
		Type:        nodeType,
		Status:      NodeStatusInitialized,
		Activation:  activation,
		Integration: integration,
	}
}

func (n Node) validate() error {
	if n.Name == "" {
		return fmt.Errorf("%w: node name is required", ErrInvalidEntity)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: node %s has unknown type %q", ErrInvalidEntity, n.Name, n.Type)
	}
	if n.Status != "" && !n.Status.Valid() {
		return fmt.Errorf("%w: node %s has unknown status %q", ErrInvalidEntity, n.Name, n.Status)
	}
	return nil
}

// Link is a directed edge. Endpoints and weight are referenced by name and
// resolved through the owning Model.
type Link struct {
	Name           string
	SourceNodeName string
	SinkNodeName   string
	WeightName     string
	ModuleName     string
}

func NewLink(name, source, sink, weight string) Link {
	return Link{Name: name, SourceNodeName: source, SinkNodeName: sink, WeightName: weight}
}

// Weight is a scalar parameter plus its init and solver policies. One weight
// may back several links.
type Weight struct {
	Name       string
	Value      float64
	Init       nn.WeightInit
	Solver     nn.Solver
	ModuleName string
}

func NewWeight(name string, init nn.WeightInit, solver nn.Solver) Weight {
	return Weight{Name: name, Init: init, Solver: solver}
}

// Direction selects which endpoint of a link is followed. Forward walks
// source to sink, Reverse walks sink to source.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}
