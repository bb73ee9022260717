package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

const (
	IntegrationSum    = "sum"
	IntegrationProd   = "prod"
	IntegrationMean   = "mean"
	IntegrationMax    = "max"
	IntegrationMin    = "min"
	IntegrationCount  = "count"
	IntegrationVar    = "var"
	IntegrationVarMod = "var_mod"
)

var (
	ErrIntegrationExists   = errors.New("integration already registered")
	ErrIntegrationNotFound = errors.New("integration not found")
)

// IntegrationFunc reduces the weighted inputs of a node to one value.
type IntegrationFunc func(inputs []float64) float64

// IntegrationErrorFunc is the partial derivative of the integration output
// with respect to inputs[i]. The weight gradient of the link feeding inputs[i]
// is this value times the source activation.
type IntegrationErrorFunc func(inputs []float64, i int) float64

type registeredIntegration struct {
	fn    IntegrationFunc
	deriv IntegrationErrorFunc
}

var integrationRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredIntegration
}{
	m: make(map[string]registeredIntegration),
}

// Integration is a node's integration function tag. The error and
// weight-gradient variants share the tag.
type Integration struct {
	Name string `json:"name"`
}

func (g Integration) ErrorName() string {
	return g.Name + "_error"
}

func (g Integration) WeightGradName() string {
	return g.Name + "_weight_grad"
}

func (g Integration) Eval(inputs []float64) (float64, error) {
	entry, err := lookupIntegration(g.Name)
	if err != nil {
		return 0, err
	}
	return entry.fn(inputs), nil
}

func (g Integration) Error(inputs []float64, i int) (float64, error) {
	entry, err := lookupIntegration(g.Name)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(inputs) {
		return 0, fmt.Errorf("input index out of range: %d", i)
	}
	return entry.deriv(inputs, i), nil
}

func (g Integration) WeightGrad(inputs []float64, i int, sourceOutput float64) (float64, error) {
	d, err := g.Error(inputs, i)
	if err != nil {
		return 0, err
	}
	return d * sourceOutput, nil
}

func RegisterIntegration(name string, fn IntegrationFunc, deriv IntegrationErrorFunc) error {
	if name == "" {
		return errors.New("integration name is required")
	}
	if fn == nil || deriv == nil {
		return errors.New("integration function and derivative are required")
	}

	integrationRegistry.mu.Lock()
	defer integrationRegistry.mu.Unlock()

	if _, exists := integrationRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrIntegrationExists, name)
	}
	integrationRegistry.m[name] = registeredIntegration{fn: fn, deriv: deriv}
	return nil
}

func MustRegisterIntegration(name string, fn IntegrationFunc, deriv IntegrationErrorFunc) {
	if err := RegisterIntegration(name, fn, deriv); err != nil {
		panic(err)
	}
}

func lookupIntegration(name string) (registeredIntegration, error) {
	integrationRegistry.mu.RLock()
	entry, ok := integrationRegistry.m[name]
	integrationRegistry.mu.RUnlock()
	if !ok {
		return registeredIntegration{}, fmt.Errorf("%w: %s", ErrIntegrationNotFound, name)
	}
	return entry, nil
}

func NewIntegration(name string) (Integration, error) {
	if _, err := lookupIntegration(name); err != nil {
		return Integration{}, err
	}
	return Integration{Name: name}, nil
}

func MustIntegration(name string) Integration {
	g, err := NewIntegration(name)
	if err != nil {
		panic(err)
	}
	return g
}

func ListIntegrations() []string {
	integrationRegistry.mu.RLock()
	defer integrationRegistry.mu.RUnlock()

	names := make([]string, 0, len(integrationRegistry.m))
	for name := range integrationRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}

func initializeBuiltInIntegrations() {
	MustRegisterIntegration(IntegrationSum,
		func(inputs []float64) float64 {
			sum := 0.0
			for _, v := range inputs {
				sum += v
			}
			return sum
		},
		func(_ []float64, _ int) float64 { return 1 })
	MustRegisterIntegration(IntegrationProd,
		func(inputs []float64) float64 {
			if len(inputs) == 0 {
				return 0
			}
			prod := 1.0
			for _, v := range inputs {
				prod *= v
			}
			return prod
		},
		func(inputs []float64, i int) float64 {
			prod := 1.0
			for j, v := range inputs {
				if j != i {
					prod *= v
				}
			}
			return prod
		})
	MustRegisterIntegration(IntegrationMean,
		mean,
		func(inputs []float64, _ int) float64 { return 1 / float64(len(inputs)) })
	MustRegisterIntegration(IntegrationMax,
		func(inputs []float64) float64 {
			if len(inputs) == 0 {
				return 0
			}
			out := math.Inf(-1)
			for _, v := range inputs {
				out = math.Max(out, v)
			}
			return out
		},
		func(inputs []float64, i int) float64 {
			for _, v := range inputs {
				if v > inputs[i] {
					return 0
				}
			}
			return 1
		})
	MustRegisterIntegration(IntegrationMin,
		func(inputs []float64) float64 {
			if len(inputs) == 0 {
				return 0
			}
			out := math.Inf(1)
			for _, v := range inputs {
				out = math.Min(out, v)
			}
			return out
		},
		func(inputs []float64, i int) float64 {
			for _, v := range inputs {
				if v < inputs[i] {
					return 0
				}
			}
			return 1
		})
	MustRegisterIntegration(IntegrationCount,
		func(inputs []float64) float64 { return float64(len(inputs)) },
		func(_ []float64, _ int) float64 { return 0 })
	MustRegisterIntegration(IntegrationVar,
		variance,
		func(inputs []float64, i int) float64 {
			return 2 * (inputs[i] - mean(inputs)) / float64(len(inputs))
		})
	MustRegisterIntegration(IntegrationVarMod,
		func(inputs []float64) float64 {
			if len(inputs) == 0 {
				return 0
			}
			sum := 0.0
			for _, v := range inputs {
				sum += v * v
			}
			return sum / float64(len(inputs))
		},
		func(inputs []float64, i int) float64 {
			return 2 * inputs[i] / float64(len(inputs))
		})
}
