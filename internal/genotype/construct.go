package genotype

import (
	"fmt"
	"math/rand"
	"time"

	"evonet/internal/model"
	"evonet/internal/nn"
)

const (
	BiasNodeName = "Bias"
)

// BaselineSpec describes a fully connected starting topology: inputs (and
// bias) feed every hidden node, hidden nodes (and bias) feed every output.
// With no hidden nodes inputs connect straight to outputs.
type BaselineSpec struct {
	NInputs  int
	NHidden  int
	NOutputs int
	WithBias bool

	// HiddenActivations is drawn from uniformly per hidden node, tanh when
	// empty.
	HiddenActivations []string
	OutputActivation  string
	Integration       string
	WeightInit        nn.WeightInit
	Solver            nn.Solver
	ModuleName        string
}

func (s BaselineSpec) validate() error {
	if s.NInputs <= 0 {
		return fmt.Errorf("baseline requires at least one input, got %d", s.NInputs)
	}
	if s.NOutputs <= 0 {
		return fmt.Errorf("baseline requires at least one output, got %d", s.NOutputs)
	}
	if s.NHidden < 0 {
		return fmt.Errorf("baseline hidden count must be >= 0, got %d", s.NHidden)
	}
	if err := s.WeightInit.Validate(); err != nil {
		return err
	}
	return s.Solver.Validate()
}

// ConstructBaseline builds the baseline model described by spec. Weight values
// are drawn from spec.WeightInit using rng.
func ConstructBaseline(id string, spec BaselineSpec, rng *rand.Rand) (*model.Model, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	rng = ensureRNG(rng)

	integration, err := nn.NewIntegration(defaultString(spec.Integration, nn.IntegrationSum))
	if err != nil {
		return nil, err
	}
	linear := nn.MustActivation(nn.ActivationLinear)
	outputActivation, err := nn.NewActivation(defaultString(spec.OutputActivation, nn.ActivationLinear))
	if err != nil {
		return nil, err
	}

	m := model.New(id, id)
	inputs := make([]string, 0, spec.NInputs+1)
	for i := 0; i < spec.NInputs; i++ {
		inputs = append(inputs, fmt.Sprintf("Input_%03d", i))
		if err := m.AddNodes(withModule(model.NewNode(inputs[i], model.NodeTypeInput, linear, integration), spec.ModuleName)); err != nil {
			return nil, err
		}
	}
	if spec.WithBias {
		if err := m.AddNodes(withModule(model.NewNode(BiasNodeName, model.NodeTypeBias, linear, integration), spec.ModuleName)); err != nil {
			return nil, err
		}
	}

	hidden := make([]string, 0, spec.NHidden)
	for i := 0; i < spec.NHidden; i++ {
		activation, err := nn.NewActivation(GenerateActivation(rng, spec.HiddenActivations))
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("FC0_%03d", i)
		hidden = append(hidden, name)
		if err := m.AddNodes(withModule(model.NewNode(name, model.NodeTypeHidden, activation, integration), spec.ModuleName)); err != nil {
			return nil, err
		}
	}

	outputs := make([]string, 0, spec.NOutputs)
	for i := 0; i < spec.NOutputs; i++ {
		name := fmt.Sprintf("Output_%03d", i)
		outputs = append(outputs, name)
		if err := m.AddNodes(withModule(model.NewNode(name, model.NodeTypeOutput, outputActivation, integration), spec.ModuleName)); err != nil {
			return nil, err
		}
	}

	sources := inputs
	if len(hidden) > 0 {
		if err := connectLayers(m, withBias(inputs, spec.WithBias), hidden, spec, rng); err != nil {
			return nil, err
		}
		sources = hidden
	}
	if err := connectLayers(m, withBias(sources, spec.WithBias), outputs, spec, rng); err != nil {
		return nil, err
	}
	return m, nil
}

func connectLayers(m *model.Model, sources, sinks []string, spec BaselineSpec, rng *rand.Rand) error {
	for _, sink := range sinks {
		for _, source := range sources {
			linkName := source + "_to_" + sink
			w := model.NewWeight("w_"+linkName, spec.WeightInit, spec.Solver.Fresh())
			w.ModuleName = spec.ModuleName
			value, err := spec.WeightInit.Draw(rng)
			if err != nil {
				return err
			}
			w.Value = value
			l := model.NewLink(linkName, source, sink, w.Name)
			l.ModuleName = spec.ModuleName
			if err := m.AddWeights(w); err != nil {
				return err
			}
			if err := m.AddLinks(l); err != nil {
				return err
			}
		}
	}
	return nil
}

// GenerateActivation picks an activation name uniformly from names. Empty
// input defaults to tanh.
func GenerateActivation(rng *rand.Rand, names []string) string {
	choice, err := RandomElement(ensureRNG(rng), names)
	if err != nil {
		return nn.ActivationTanH
	}
	return choice
}

// RandomElement returns a uniform pick from values.
func RandomElement[T any](rng *rand.Rand, values []T) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, fmt.Errorf("values are required")
	}
	return values[ensureRNG(rng).Intn(len(values))], nil
}

func withBias(names []string, bias bool) []string {
	if !bias {
		return names
	}
	return append(append([]string(nil), names...), BiasNodeName)
}

func withModule(n model.Node, module string) model.Node {
	n.ModuleName = module
	return n
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
