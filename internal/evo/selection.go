package evo

import (
	"fmt"
	"math"

	"evonet/internal/model"
)

// SelectRandomNode picks uniformly among nodes matching filter.
func (r *Replicator) SelectRandomNode(m *model.Model, filter model.TypeFilter) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	candidates := m.NodeNamesMatching(filter)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no node matches %+v", ErrNoCandidate, filter)
	}
	return candidates[r.Rand.Intn(len(candidates))], nil
}

// SelectRandomNodeNear picks among nodes matching filter with probability
// proportional to (1/d)^distanceWeight, d being the hop distance from anchor
// along dir. The anchor counts as d=1 and unreachable nodes as d=N+1 for a
// model of N nodes.
func (r *Replicator) SelectRandomNodeNear(m *model.Model, filter model.TypeFilter, anchor string, distanceWeight float64, dir model.Direction) (string, error) {
	if distanceWeight == 0 {
		return r.SelectRandomNode(m, filter)
	}
	if err := r.validate(); err != nil {
		return "", err
	}
	if distanceWeight < 0 || math.IsNaN(distanceWeight) || math.IsInf(distanceWeight, 0) {
		return "", fmt.Errorf("distance weight must be finite and >= 0, got %f", distanceWeight)
	}
	candidates := m.NodeNamesMatching(filter)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no node matches %+v", ErrNoCandidate, filter)
	}
	dist, err := m.Distances(anchor, dir)
	if err != nil {
		return "", err
	}
	unreachable := float64(m.NodeCount() + 1)
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, name := range candidates {
		d := unreachable
		if hops, ok := dist[name]; ok {
			d = float64(max(hops, 1))
		}
		weights[i] = math.Pow(1/d, distanceWeight)
		total += weights[i]
	}
	pick := r.Rand.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return candidates[i], nil
		}
	}
	return candidates[len(candidates)-1], nil
}

// SelectRandomLink picks uniformly among links whose endpoints match the
// filters. With Reverse the source filter applies to the sink endpoint and
// the sink filter to the source endpoint.
func (r *Replicator) SelectRandomLink(m *model.Model, source, sink model.TypeFilter, dir model.Direction) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	if dir == model.Reverse {
		source, sink = sink, source
	}
	candidates := m.LinkNamesMatching(source, sink)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no link matches source=%+v sink=%+v", ErrNoCandidate, source, sink)
	}
	return candidates[r.Rand.Intn(len(candidates))], nil
}

// SelectRandomWeights draws n weight names with replacement.
func (r *Replicator) SelectRandomWeights(m *model.Model, n int) ([]string, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("weight selection count must be >= 0, got %d", n)
	}
	names := m.WeightNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: model has no weights", ErrNoCandidate)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = names[r.Rand.Intn(len(names))]
	}
	return out, nil
}
