package evo

import (
	"fmt"
	"slices"

	"evonet/internal/model"
	"evonet/internal/nn"
)

var (
	copyNodeFilter   = model.TypeFilter{Exclude: []model.NodeType{model.NodeTypeBias, model.NodeTypeInput}}
	deleteNodeFilter = model.TypeFilter{Exclude: []model.NodeType{model.NodeTypeInput, model.NodeTypeOutput, model.NodeTypeBias}}
	retagNodeFilter  = model.TypeFilter{Exclude: []model.NodeType{model.NodeTypeInput, model.NodeTypeBias}}
)

// CopyNode duplicates a random non-input, non-bias node together with one of
// its incident links so the copy sits beside the original.
func (r *Replicator) CopyNode(m *model.Model, uniqueString string) error {
	_, err := r.copyNode(m, uniqueString)
	return err
}

// AddNode inserts a new hidden node in series on an input link of a random
// node.
func (r *Replicator) AddNode(m *model.Model, uniqueString string) error {
	_, err := r.addNode(m, uniqueString)
	return err
}

// AddLink connects a random source to a random sink through a fresh weight.
// Self-loops, cycles and parallel links are allowed.
func (r *Replicator) AddLink(m *model.Model, uniqueString string) error {
	_, err := r.addLink(m, uniqueString)
	return err
}

// DeleteNode removes a random hidden-like node and prunes what it leaves
// dangling.
func (r *Replicator) DeleteNode(m *model.Model, uniqueString string) error {
	_, err := r.deleteNode(m, uniqueString)
	return err
}

func (r *Replicator) DeleteLink(m *model.Model, uniqueString string) error {
	_, err := r.deleteLink(m, uniqueString)
	return err
}

// ModifyWeight perturbs the configured number of weight changes.
func (r *Replicator) ModifyWeight(m *model.Model) error {
	_, err := r.modifyWeight(m, r.counts.WeightChanges)
	return err
}

func (r *Replicator) ChangeNodeActivation(m *model.Model, uniqueString string) error {
	_, err := r.changeNodeActivation(m, uniqueString)
	return err
}

func (r *Replicator) ChangeNodeIntegration(m *model.Model, uniqueString string) error {
	_, err := r.changeNodeIntegration(m, uniqueString)
	return err
}

func (r *Replicator) copyNode(m *model.Model, uniqueString string) ([]string, error) {
	name, err := r.SelectRandomNode(m, copyNodeFilter)
	if err != nil {
		return nil, err
	}
	original, _ := m.Node(name)
	incident := incidentLinks(m, name)
	if len(incident) == 0 {
		return nil, fmt.Errorf("%w: node %s has no links to copy", ErrNoCandidate, name)
	}
	link := incident[r.Rand.Intn(len(incident))]
	weight, ok := m.Weight(link.WeightName)
	if !ok {
		return nil, fmt.Errorf("%w: link %s weight %s", model.ErrDanglingReference, link.Name, link.WeightName)
	}

	clone := model.NewNode(r.lineageName(name, KindCopyNode, uniqueString), original.Type, original.Activation, original.Integration)
	clone.ModuleName = original.ModuleName
	if clone.Type == model.NodeTypeOutput {
		clone.Type = model.NodeTypeHidden
	}

	// A self-loop N->N becomes N->copy so the copy stays attached to N.
	source, sink := link.SourceNodeName, link.SinkNodeName
	switch {
	case sink == name:
		sink = clone.Name
	case source == name:
		source = clone.Name
	}
	copied := link
	copied.Name = r.linkName(source, sink, KindCopyNode, uniqueString)
	copied.SourceNodeName = source
	copied.SinkNodeName = sink

	touched := []string{clone.Name, copied.Name}
	if err := m.AddNodes(clone); err != nil {
		return nil, err
	}
	if !r.ShareCopiedWeights {
		dup := weight
		dup.Name = r.lineageName(weight.Name, KindCopyNode, uniqueString)
		dup.Solver = weight.Solver.Fresh()
		if err := m.AddWeights(dup); err != nil {
			return nil, err
		}
		copied.WeightName = dup.Name
		touched = append(touched, dup.Name)
	}
	if err := m.AddLinks(copied); err != nil {
		return nil, err
	}
	return touched, nil
}

func (r *Replicator) addNode(m *model.Model, uniqueString string) ([]string, error) {
	name, err := r.SelectRandomNode(m, model.TypeFilter{})
	if err != nil {
		return nil, err
	}
	inputs := m.InputLinks(name)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputLinks, name)
	}
	split := inputs[r.Rand.Intn(len(inputs))]
	reference, ok := m.Weight(split.WeightName)
	if !ok {
		return nil, fmt.Errorf("%w: link %s weight %s", model.ErrDanglingReference, split.Name, split.WeightName)
	}

	anchor, _ := m.Node(name)
	activation, integration := anchor.Activation, anchor.Integration
	if len(r.nodeActivations) > 0 {
		activation = r.nodeActivations[r.Rand.Intn(len(r.nodeActivations))]
	}
	if len(r.nodeIntegrations) > 0 {
		integration = r.nodeIntegrations[r.Rand.Intn(len(r.nodeIntegrations))]
	}
	inserted := model.NewNode(r.lineageName(name, KindAddNode, uniqueString), model.NodeTypeHidden, activation, integration)
	inserted.ModuleName = anchor.ModuleName

	fresh, err := r.freshWeight(r.lineageName(split.WeightName, KindAddNode, uniqueString), reference.Init, reference.Solver)
	if err != nil {
		return nil, err
	}
	fresh.ModuleName = reference.ModuleName

	in := model.NewLink(r.linkName(split.SourceNodeName, inserted.Name, KindAddNode, uniqueString), split.SourceNodeName, inserted.Name, split.WeightName)
	out := model.NewLink(r.linkName(inserted.Name, name, KindAddNode, uniqueString), inserted.Name, name, fresh.Name)
	in.ModuleName = split.ModuleName
	out.ModuleName = split.ModuleName

	if err := m.AddNodes(inserted); err != nil {
		return nil, err
	}
	if err := m.AddWeights(fresh); err != nil {
		return nil, err
	}
	if err := m.AddLinks(in, out); err != nil {
		return nil, err
	}
	m.RemoveLink(split.Name)
	return []string{inserted.Name, in.Name, out.Name, fresh.Name, split.Name}, nil
}

func (r *Replicator) addLink(m *model.Model, uniqueString string) ([]string, error) {
	source, err := r.SelectRandomNode(m, r.LinkSourceFilter)
	if err != nil {
		return nil, err
	}
	sink, err := r.SelectRandomNodeNear(m, r.LinkSinkFilter, source, r.LinkDistanceWeight, model.Forward)
	if err != nil {
		return nil, err
	}
	weight, err := r.freshWeight(r.lineageName("w_"+BaseName(source)+"_to_"+BaseName(sink), KindAddLink, uniqueString), r.DefaultWeightInit, r.DefaultSolver)
	if err != nil {
		return nil, err
	}
	link := model.NewLink(r.linkName(source, sink, KindAddLink, uniqueString), source, sink, weight.Name)
	if err := m.AddWeights(weight); err != nil {
		return nil, err
	}
	if err := m.AddLinks(link); err != nil {
		return nil, err
	}
	return []string{link.Name, weight.Name}, nil
}

func (r *Replicator) deleteNode(m *model.Model, _ string) ([]string, error) {
	name, err := r.SelectRandomNode(m, deleteNodeFilter)
	if err != nil {
		return nil, err
	}
	m.RemoveNode(name)
	m.PruneModel(r.pruneIterations())
	return []string{name}, nil
}

func (r *Replicator) deleteLink(m *model.Model, _ string) ([]string, error) {
	name, err := r.SelectRandomLink(m, model.TypeFilter{}, model.TypeFilter{}, model.Forward)
	if err != nil {
		return nil, err
	}
	m.RemoveLink(name)
	m.PruneModel(r.pruneIterations())
	return []string{name}, nil
}

// modifyWeight draws n weights with replacement and adds Normal(0, stdev)
// noise to each draw.
func (r *Replicator) modifyWeight(m *model.Model, n int) ([]string, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	names, err := r.SelectRandomWeights(m, n)
	if err != nil {
		return nil, err
	}
	touched := make([]string, 0, len(names))
	for _, name := range names {
		w, _ := m.Weight(name)
		if err := m.SetWeightValue(name, w.Value+r.Rand.NormFloat64()*r.WeightChangeStdev); err != nil {
			return nil, err
		}
		if !slices.Contains(touched, name) {
			touched = append(touched, name)
		}
	}
	return touched, nil
}

func (r *Replicator) changeNodeActivation(m *model.Model, _ string) ([]string, error) {
	if len(r.nodeActivations) == 0 {
		return nil, fmt.Errorf("%w: activation palette is empty", ErrNoCandidate)
	}
	name, err := r.SelectRandomNode(m, retagNodeFilter)
	if err != nil {
		return nil, err
	}
	n, _ := m.Node(name)
	n.Activation = r.nodeActivations[r.Rand.Intn(len(r.nodeActivations))]
	if err := m.UpdateNode(n); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func (r *Replicator) changeNodeIntegration(m *model.Model, _ string) ([]string, error) {
	if len(r.nodeIntegrations) == 0 {
		return nil, fmt.Errorf("%w: integration palette is empty", ErrNoCandidate)
	}
	name, err := r.SelectRandomNode(m, retagNodeFilter)
	if err != nil {
		return nil, err
	}
	n, _ := m.Node(name)
	n.Integration = r.nodeIntegrations[r.Rand.Intn(len(r.nodeIntegrations))]
	if err := m.UpdateNode(n); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// freshWeight builds a weight with a newly drawn value and reset solver state.
func (r *Replicator) freshWeight(name string, init nn.WeightInit, solver nn.Solver) (model.Weight, error) {
	w := model.NewWeight(name, init, solver.Fresh())
	value, err := init.Draw(r.Rand)
	if err != nil {
		return model.Weight{}, err
	}
	w.Value = value
	return w, nil
}

func (r *Replicator) pruneIterations() int {
	if r.PruneIterations <= 0 {
		return model.DefaultPruneIterations
	}
	return r.PruneIterations
}

// incidentLinks returns the input and output links of node, each once.
func incidentLinks(m *model.Model, node string) []model.Link {
	links := m.InputLinks(node)
	for _, l := range m.OutputLinks(node) {
		if l.SinkNodeName == node {
			continue
		}
		links = append(links, l)
	}
	return links
}
