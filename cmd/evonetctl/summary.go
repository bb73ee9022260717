package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"

	"evonet/internal/evo"
	"evonet/internal/genotype"
	"evonet/internal/model"
)

func printModelSummary(m *model.Model) {
	s := genotype.GetNodeSummary(m)
	fmt.Fprintf(stdout, "model id=%s nodes=%s links=%s weights=%s shared_weights=%d self_loops=%d recurrent_links=%d\n",
		m.ID,
		humanize.Comma(int64(s.Nodes)),
		humanize.Comma(int64(s.Links)),
		humanize.Comma(int64(s.Weights)),
		s.SharedWeights,
		s.SelfLoops,
		s.RecurrentLinks,
	)
	for _, t := range []model.NodeType{model.NodeTypeInput, model.NodeTypeBias, model.NodeTypeHidden, model.NodeTypeOutput} {
		fmt.Fprintf(stdout, "  %-6s %d\n", t, s.TypeDistribution[t])
	}
	for _, name := range slices.Sorted(maps.Keys(s.ActivationDistribution)) {
		fmt.Fprintf(stdout, "  activation %-12s %d\n", name, s.ActivationDistribution[name])
	}
}

func printLineageSummary(records []model.LineageRecord) {
	s := genotype.SummarizeLineage(records)
	fmt.Fprintf(stdout, "lineage records=%s\n", humanize.Comma(int64(len(records))))
	for _, kind := range evo.Kinds {
		name := string(kind)
		if s.Applied[name] == 0 && s.Skipped[name] == 0 {
			continue
		}
		fmt.Fprintf(stdout, "  %-24s applied=%d skipped=%d\n", name, s.Applied[name], s.Skipped[name])
	}
}
