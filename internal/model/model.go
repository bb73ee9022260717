package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrDuplicateName     = errors.New("duplicate entity name")
	ErrDanglingReference = errors.New("dangling reference")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrNodeNotFound      = errors.New("node not found")
	ErrLinkNotFound      = errors.New("link not found")
	ErrWeightNotFound    = errors.New("weight not found")
)

// Model owns the node, link and weight collections of one network. It is not
// safe for concurrent use; each worker mutates its own Model.
type Model struct {
	ID   string
	Name string

	nodes   map[string]Node
	links   map[string]Link
	weights map[string]Weight

	// outLinks and inLinks index link names by source and sink node name.
	// Entries exist for every link even while its endpoint node is missing.
	outLinks map[string]map[string]struct{}
	inLinks  map[string]map[string]struct{}
}

func New(id, name string) *Model {
	return &Model{
		ID:       id,
		Name:     name,
		nodes:    make(map[string]Node),
		links:    make(map[string]Link),
		weights:  make(map[string]Weight),
		outLinks: make(map[string]map[string]struct{}),
		inLinks:  make(map[string]map[string]struct{}),
	}
}

// AddNodes inserts nodes. Nothing is inserted when any name collides.
func (m *Model) AddNodes(nodes ...Node) error {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if err := n.validate(); err != nil {
			return err
		}
		if _, exists := m.nodes[n.Name]; exists {
			return fmt.Errorf("%w: node %s", ErrDuplicateName, n.Name)
		}
		if _, dup := seen[n.Name]; dup {
			return fmt.Errorf("%w: node %s", ErrDuplicateName, n.Name)
		}
		seen[n.Name] = struct{}{}
	}
	for _, n := range nodes {
		if n.Status == "" {
			n.Status = NodeStatusInitialized
		}
		m.nodes[n.Name] = n
	}
	return nil
}

// AddWeights inserts weights. Nothing is inserted when any name collides.
func (m *Model) AddWeights(weights ...Weight) error {
	seen := make(map[string]struct{}, len(weights))
	for _, w := range weights {
		if w.Name == "" {
			return fmt.Errorf("%w: weight name is required", ErrInvalidEntity)
		}
		if _, exists := m.weights[w.Name]; exists {
			return fmt.Errorf("%w: weight %s", ErrDuplicateName, w.Name)
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("%w: weight %s", ErrDuplicateName, w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	for _, w := range weights {
		m.weights[w.Name] = w
	}
	return nil
}

// AddLinks inserts links whose endpoints and weight already exist. Nothing
// is inserted when any link fails validation.
func (m *Model) AddLinks(links ...Link) error {
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if l.Name == "" {
			return fmt.Errorf("%w: link name is required", ErrInvalidEntity)
		}
		if _, exists := m.links[l.Name]; exists {
			return fmt.Errorf("%w: link %s", ErrDuplicateName, l.Name)
		}
		if _, dup := seen[l.Name]; dup {
			return fmt.Errorf("%w: link %s", ErrDuplicateName, l.Name)
		}
		if err := m.checkLinkReferences(l); err != nil {
			return err
		}
		seen[l.Name] = struct{}{}
	}
	for _, l := range links {
		m.links[l.Name] = l
		indexLink(m.outLinks, l.SourceNodeName, l.Name)
		indexLink(m.inLinks, l.SinkNodeName, l.Name)
	}
	return nil
}

func (m *Model) checkLinkReferences(l Link) error {
	if _, ok := m.nodes[l.SourceNodeName]; !ok {
		return fmt.Errorf("%w: link %s source node %s", ErrDanglingReference, l.Name, l.SourceNodeName)
	}
	if _, ok := m.nodes[l.SinkNodeName]; !ok {
		return fmt.Errorf("%w: link %s sink node %s", ErrDanglingReference, l.Name, l.SinkNodeName)
	}
	if _, ok := m.weights[l.WeightName]; !ok {
		return fmt.Errorf("%w: link %s weight %s", ErrDanglingReference, l.Name, l.WeightName)
	}
	return nil
}

// RemoveNode deletes a node. Incident links are left for PruneModel.
func (m *Model) RemoveNode(name string) {
	delete(m.nodes, name)
}

func (m *Model) RemoveLink(name string) {
	l, ok := m.links[name]
	if !ok {
		return
	}
	delete(m.links, name)
	unindexLink(m.outLinks, l.SourceNodeName, name)
	unindexLink(m.inLinks, l.SinkNodeName, name)
}

// RemoveWeight deletes a weight. Links still referencing it are left for
// PruneModel.
func (m *Model) RemoveWeight(name string) {
	delete(m.weights, name)
}

func (m *Model) Node(name string) (Node, bool) {
	n, ok := m.nodes[name]
	return n, ok
}

func (m *Model) Link(name string) (Link, bool) {
	l, ok := m.links[name]
	return l, ok
}

func (m *Model) Weight(name string) (Weight, bool) {
	w, ok := m.weights[name]
	return w, ok
}

// UpdateNode replaces the stored node with the same name.
func (m *Model) UpdateNode(n Node) error {
	if _, ok := m.nodes[n.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.Name)
	}
	if err := n.validate(); err != nil {
		return err
	}
	m.nodes[n.Name] = n
	return nil
}

// UpdateWeight replaces the stored weight with the same name.
func (m *Model) UpdateWeight(w Weight) error {
	if _, ok := m.weights[w.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrWeightNotFound, w.Name)
	}
	m.weights[w.Name] = w
	return nil
}

func (m *Model) SetWeightValue(name string, value float64) error {
	w, ok := m.weights[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWeightNotFound, name)
	}
	w.Value = value
	m.weights[name] = w
	return nil
}

func (m *Model) NodeCount() int   { return len(m.nodes) }
func (m *Model) LinkCount() int   { return len(m.links) }
func (m *Model) WeightCount() int { return len(m.weights) }

// NodeNames, LinkNames and WeightNames return names in ascending order so
// iteration over a Model is reproducible.
func (m *Model) NodeNames() []string   { return slices.Sorted(maps.Keys(m.nodes)) }
func (m *Model) LinkNames() []string   { return slices.Sorted(maps.Keys(m.links)) }
func (m *Model) WeightNames() []string { return slices.Sorted(maps.Keys(m.weights)) }

func (m *Model) Nodes() []Node {
	out := make([]Node, 0, len(m.nodes))
	for _, name := range m.NodeNames() {
		out = append(out, m.nodes[name])
	}
	return out
}

func (m *Model) Links() []Link {
	out := make([]Link, 0, len(m.links))
	for _, name := range m.LinkNames() {
		out = append(out, m.links[name])
	}
	return out
}

func (m *Model) Weights() []Weight {
	out := make([]Weight, 0, len(m.weights))
	for _, name := range m.WeightNames() {
		out = append(out, m.weights[name])
	}
	return out
}

// Clone returns a deep copy sharing no maps with m.
func (m *Model) Clone() *Model {
	out := New(m.ID, m.Name)
	maps.Copy(out.nodes, m.nodes)
	maps.Copy(out.links, m.links)
	maps.Copy(out.weights, m.weights)
	for node, set := range m.outLinks {
		out.outLinks[node] = maps.Clone(set)
	}
	for node, set := range m.inLinks {
		out.inLinks[node] = maps.Clone(set)
	}
	return out
}

// CheckIntegrity reports the first link whose endpoints or weight do not
// resolve. Names are checked in ascending order.
func (m *Model) CheckIntegrity() error {
	for _, name := range m.LinkNames() {
		if err := m.checkLinkReferences(m.links[name]); err != nil {
			return err
		}
	}
	return nil
}

func indexLink(index map[string]map[string]struct{}, node, link string) {
	set, ok := index[node]
	if !ok {
		set = make(map[string]struct{})
		index[node] = set
	}
	set[link] = struct{}{}
}

func unindexLink(index map[string]map[string]struct{}, node, link string) {
	set, ok := index[node]
	if !ok {
		return
	}
	delete(set, link)
	if len(set) == 0 {
		delete(index, node)
	}
}
