package model

import (
	"fmt"
	"maps"
	"slices"
)

// TypeFilter matches node types not in Exclude and, when Include is
// non-empty, in Include.
type TypeFilter struct {
	Exclude []NodeType
	Include []NodeType
}

func (f TypeFilter) Match(t NodeType) bool {
	if slices.Contains(f.Exclude, t) {
		return false
	}
	return len(f.Include) == 0 || slices.Contains(f.Include, t)
}

func (m *Model) NodeNamesMatching(filter TypeFilter) []string {
	out := make([]string, 0, len(m.nodes))
	for _, name := range m.NodeNames() {
		if filter.Match(m.nodes[name].Type) {
			out = append(out, name)
		}
	}
	return out
}

// LinkNamesMatching returns links whose source and sink nodes exist and match
// the respective filters.
func (m *Model) LinkNamesMatching(source, sink TypeFilter) []string {
	out := make([]string, 0, len(m.links))
	for _, name := range m.LinkNames() {
		l := m.links[name]
		src, ok := m.nodes[l.SourceNodeName]
		if !ok || !source.Match(src.Type) {
			continue
		}
		dst, ok := m.nodes[l.SinkNodeName]
		if !ok || !sink.Match(dst.Type) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// IncidentLinks returns links leaving node (Forward) or entering it
// (Reverse), ordered by name.
func (m *Model) IncidentLinks(node string, dir Direction) []Link {
	index := m.outLinks
	if dir == Reverse {
		index = m.inLinks
	}
	names := slices.Sorted(maps.Keys(index[node]))
	out := make([]Link, 0, len(names))
	for _, name := range names {
		out = append(out, m.links[name])
	}
	return out
}

// InputLinks are the links whose sink is node.
func (m *Model) InputLinks(node string) []Link {
	return m.IncidentLinks(node, Reverse)
}

// OutputLinks are the links whose source is node.
func (m *Model) OutputLinks(node string) []Link {
	return m.IncidentLinks(node, Forward)
}

func (m *Model) LinksReferencingWeight(weight string) []string {
	out := make([]string, 0)
	for _, name := range m.LinkNames() {
		if m.links[name].WeightName == weight {
			out = append(out, name)
		}
	}
	return out
}

// Distances returns hop counts from node to every reachable node following
// links in dir. The start node has distance 0.
func (m *Model) Distances(node string, dir Direction) (map[string]int, error) {
	if _, ok := m.nodes[node]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, node)
	}
	dist := map[string]int{node: 0}
	queue := []string{node}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, l := range m.IncidentLinks(current, dir) {
			next := l.SinkNodeName
			if dir == Reverse {
				next = l.SourceNodeName
			}
			if _, ok := m.nodes[next]; !ok {
				continue
			}
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return dist, nil
}

// Distance is the hop count from one node to another along dir, or -1 when
// to is unreachable.
func (m *Model) Distance(from, to string, dir Direction) (int, error) {
	if _, ok := m.nodes[to]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	dist, err := m.Distances(from, dir)
	if err != nil {
		return 0, err
	}
	d, ok := dist[to]
	if !ok {
		return -1, nil
	}
	return d, nil
}
