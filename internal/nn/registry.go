package nn

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
	ErrActivationVersion  = errors.New("activation version mismatch")
)

// ActivationFunc evaluates an activation or its gradient at x. param carries
// the per-node payload (alpha for ELU/LeakyReLU, exponent for Pow) and is
// ignored by parameterless activations.
type ActivationFunc func(x, param float64) float64

type ActivationSpec struct {
	Name          string
	Func          ActivationFunc
	Grad          ActivationFunc
	DefaultParam  float64
	SchemaVersion int
	CodecVersion  int
}

type registeredActivation struct {
	fn            ActivationFunc
	grad          ActivationFunc
	defaultParam  float64
	schemaVersion int
	codecVersion  int
}

var activationRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredActivation
}{
	m: make(map[string]registeredActivation),
}

func init() {
	initializeBuiltInActivations()
	initializeBuiltInIntegrations()
}

func RegisterActivation(name string, fn, grad ActivationFunc, defaultParam float64) error {
	return RegisterActivationWithSpec(ActivationSpec{
		Name:          name,
		Func:          fn,
		Grad:          grad,
		DefaultParam:  defaultParam,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func MustRegisterActivation(name string, fn, grad ActivationFunc, defaultParam float64) {
	if err := RegisterActivation(name, fn, grad, defaultParam); err != nil {
		panic(err)
	}
}

func RegisterActivationWithSpec(spec ActivationSpec) error {
	if spec.Name == "" {
		return errors.New("activation name is required")
	}
	if spec.Func == nil || spec.Grad == nil {
		return errors.New("activation function and gradient are required")
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrActivationVersion, spec.SchemaVersion, spec.CodecVersion)
	}

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
	}

	activationRegistry.m[spec.Name] = registeredActivation{
		fn:            spec.Func,
		grad:          spec.Grad,
		defaultParam:  spec.DefaultParam,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
	}
	return nil
}

func lookupActivation(name string) (registeredActivation, error) {
	activationRegistry.mu.RLock()
	entry, ok := activationRegistry.m[name]
	activationRegistry.mu.RUnlock()
	if !ok {
		return registeredActivation{}, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return registeredActivation{}, fmt.Errorf("%w: %s", ErrActivationVersion, name)
	}
	return entry, nil
}

// NewActivation returns the tagged variant for name with its registered
// default parameter.
func NewActivation(name string) (Activation, error) {
	entry, err := lookupActivation(name)
	if err != nil {
		return Activation{}, err
	}
	return Activation{Name: name, Param: entry.defaultParam}, nil
}

func MustActivation(name string) Activation {
	a, err := NewActivation(name)
	if err != nil {
		panic(err)
	}
	return a
}

func ListActivations() []string {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	names := make([]string, 0, len(activationRegistry.m))
	for name := range activationRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.m = make(map[string]registeredActivation)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
