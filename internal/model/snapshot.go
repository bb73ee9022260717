package model

import (
	"fmt"

	"evonet/internal/nn"
)

const (
	SnapshotSchemaVersion = 1
	SnapshotCodecVersion  = 1
)

// NodeRecord, LinkRecord and WeightRecord are the plain attribute tuples
// exchanged with loaders and stores. Operators travel as string tags.
type NodeRecord struct {
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	Activation      string  `json:"activation"`
	ActivationParam float64 `json:"activation_param,omitempty"`
	Integration     string  `json:"integration"`
	ModuleName      string  `json:"module_name,omitempty"`
}

type LinkRecord struct {
	Name           string `json:"name"`
	SourceNodeName string `json:"source_node_name"`
	SinkNodeName   string `json:"sink_node_name"`
	WeightName     string `json:"weight_name"`
	ModuleName     string `json:"module_name,omitempty"`
}

type WeightRecord struct {
	Name       string        `json:"name"`
	Value      float64       `json:"value"`
	Init       nn.WeightInit `json:"weight_init"`
	Solver     nn.Solver     `json:"solver"`
	ModuleName string        `json:"module_name,omitempty"`
}

type Snapshot struct {
	VersionedRecord
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Nodes   []NodeRecord   `json:"nodes"`
	Links   []LinkRecord   `json:"links"`
	Weights []WeightRecord `json:"weights"`
}

// Snapshot decomposes the model into records ordered by name.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		VersionedRecord: VersionedRecord{SchemaVersion: SnapshotSchemaVersion, CodecVersion: SnapshotCodecVersion},
		ID:              m.ID,
		Name:            m.Name,
		Nodes:           make([]NodeRecord, 0, len(m.nodes)),
		Links:           make([]LinkRecord, 0, len(m.links)),
		Weights:         make([]WeightRecord, 0, len(m.weights)),
	}
	for _, n := range m.Nodes() {
		s.Nodes = append(s.Nodes, NodeRecord{
			Name:            n.Name,
			Type:            string(n.Type),
			Status:          string(n.Status),
			Activation:      n.Activation.Name,
			ActivationParam: n.Activation.Param,
			Integration:     n.Integration.Name,
			ModuleName:      n.ModuleName,
		})
	}
	for _, l := range m.Links() {
		s.Links = append(s.Links, LinkRecord(l))
	}
	for _, w := range m.Weights() {
		s.Weights = append(s.Weights, WeightRecord(w))
	}
	return s
}

// FromSnapshot rebuilds a model, resolving every operator tag against the nn
// registries.
func FromSnapshot(s Snapshot) (*Model, error) {
	if s.SchemaVersion != SnapshotSchemaVersion || s.CodecVersion != SnapshotCodecVersion {
		return nil, fmt.Errorf("unsupported snapshot version: schema=%d codec=%d", s.SchemaVersion, s.CodecVersion)
	}
	m := New(s.ID, s.Name)

	nodes := make([]Node, 0, len(s.Nodes))
	for _, r := range s.Nodes {
		activation, err := nn.NewActivation(r.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", r.Name, err)
		}
		activation.Param = r.ActivationParam
		integration, err := nn.NewIntegration(r.Integration)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", r.Name, err)
		}
		nodes = append(nodes, Node{
			Name:        r.Name,
			Type:        NodeType(r.Type),
			Status:      NodeStatus(r.Status),
			Activation:  activation,
			Integration: integration,
			ModuleName:  r.ModuleName,
		})
	}
	if err := m.AddNodes(nodes...); err != nil {
		return nil, err
	}

	weights := make([]Weight, 0, len(s.Weights))
	for _, r := range s.Weights {
		if err := r.Init.Validate(); err != nil {
			return nil, fmt.Errorf("weight %s: %w", r.Name, err)
		}
		if err := r.Solver.Validate(); err != nil {
			return nil, fmt.Errorf("weight %s: %w", r.Name, err)
		}
		weights = append(weights, Weight(r))
	}
	if err := m.AddWeights(weights...); err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(s.Links))
	for _, r := range s.Links {
		links = append(links, Link(r))
	}
	if err := m.AddLinks(links...); err != nil {
		return nil, err
	}
	return m, nil
}
