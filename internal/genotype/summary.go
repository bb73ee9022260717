package genotype

import (
	"strings"

	"evonet/internal/model"
)

// NodeSummary counts link roles and activation usage across a model.
type NodeSummary struct {
	Nodes                  int
	Links                  int
	Weights                int
	SharedWeights          int
	SelfLoops              int
	RecurrentLinks         int
	TypeDistribution       map[model.NodeType]int
	ActivationDistribution map[string]int
}

// GetNodeSummary summarizes m. A link is recurrent when its source is
// reachable from its sink.
func GetNodeSummary(m *model.Model) NodeSummary {
	summary := NodeSummary{
		Nodes:                  m.NodeCount(),
		Links:                  m.LinkCount(),
		Weights:                m.WeightCount(),
		TypeDistribution:       make(map[model.NodeType]int),
		ActivationDistribution: make(map[string]int),
	}
	for _, n := range m.Nodes() {
		summary.TypeDistribution[n.Type]++
		summary.ActivationDistribution[n.Activation.Name]++
	}
	refs := make(map[string]int, m.WeightCount())
	reach := make(map[string]map[string]int)
	for _, l := range m.Links() {
		refs[l.WeightName]++
		if l.SourceNodeName == l.SinkNodeName {
			summary.SelfLoops++
			summary.RecurrentLinks++
			continue
		}
		dist, ok := reach[l.SinkNodeName]
		if !ok {
			dist, _ = m.Distances(l.SinkNodeName, model.Forward)
			reach[l.SinkNodeName] = dist
		}
		if _, ok := dist[l.SourceNodeName]; ok {
			summary.RecurrentLinks++
		}
	}
	for _, n := range refs {
		if n > 1 {
			summary.SharedWeights++
		}
	}
	return summary
}

// LineageSummary counts applied and skipped modifications per operator.
type LineageSummary struct {
	Applied map[string]int
	Skipped map[string]int
}

func SummarizeLineage(records []model.LineageRecord) LineageSummary {
	out := LineageSummary{Applied: map[string]int{}, Skipped: map[string]int{}}
	for _, r := range records {
		if r.Skipped {
			out.Skipped[r.Operation]++
			continue
		}
		out.Applied[r.Operation]++
	}
	return out
}

// Origin splits a generated entity name into its base name and the
// operator that created it. Baseline names have no operator.
func Origin(name string) (string, string) {
	base, rest, ok := strings.Cut(name, "@")
	if !ok {
		return name, ""
	}
	op, _, _ := strings.Cut(rest, "#")
	return base, op
}
