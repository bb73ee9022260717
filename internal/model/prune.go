package model

// DefaultPruneIterations is large enough for any cascade to reach a fixed
// point on realistic models.
const DefaultPruneIterations = 1000

// PruneModel repeatedly removes links whose source node, sink node or weight
// is missing, then non-protected nodes with no incident links, then weights no
// link references. It stops after a pass that removes nothing or after
// iterations passes, and returns the total number of removed entities.
func (m *Model) PruneModel(iterations int) int {
	total := 0
	for i := 0; i < iterations; i++ {
		removed := m.pruneLinks() + m.pruneNodes() + m.pruneWeights()
		if removed == 0 {
			break
		}
		total += removed
	}
	return total
}

func (m *Model) pruneLinks() int {
	removed := 0
	for _, name := range m.LinkNames() {
		if m.checkLinkReferences(m.links[name]) == nil {
			continue
		}
		m.RemoveLink(name)
		removed++
	}
	return removed
}

func (m *Model) pruneNodes() int {
	removed := 0
	for _, name := range m.NodeNames() {
		if m.nodes[name].Type.Protected() {
			continue
		}
		if len(m.outLinks[name]) > 0 || len(m.inLinks[name]) > 0 {
			continue
		}
		m.RemoveNode(name)
		removed++
	}
	return removed
}

func (m *Model) pruneWeights() int {
	referenced := make(map[string]struct{}, len(m.weights))
	for _, l := range m.links {
		referenced[l.WeightName] = struct{}{}
	}
	removed := 0
	for _, name := range m.WeightNames() {
		if _, ok := referenced[name]; ok {
			continue
		}
		m.RemoveWeight(name)
		removed++
	}
	return removed
}
