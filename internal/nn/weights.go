package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

const (
	WeightInitRandom = "random"
	WeightInitConst  = "const"

	SolverSGD   = "sgd"
	SolverAdam  = "adam"
	SolverDummy = "dummy"
)

var (
	ErrUnknownWeightInit = errors.New("unknown weight init")
	ErrUnknownSolver     = errors.New("unknown solver")
)

// WeightInit is the (re)initialization policy of a weight. Random draws
// Normal(0, 1) * sqrt(F/N) where N and F default to 1.
type WeightInit struct {
	Name  string  `json:"name"`
	N     float64 `json:"n,omitempty"`
	F     float64 `json:"f,omitempty"`
	Value float64 `json:"value,omitempty"`
}

func RandomWeightInit(n, f float64) WeightInit {
	return WeightInit{Name: WeightInitRandom, N: n, F: f}
}

func ConstWeightInit(value float64) WeightInit {
	return WeightInit{Name: WeightInitConst, Value: value}
}

func (w WeightInit) Validate() error {
	switch w.Name {
	case WeightInitRandom, WeightInitConst:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownWeightInit, w.Name)
	}
}

func (w WeightInit) Draw(rng *rand.Rand) (float64, error) {
	switch w.Name {
	case WeightInitConst:
		return w.Value, nil
	case WeightInitRandom:
		if rng == nil {
			return 0, errors.New("random source is required")
		}
		n, f := w.N, w.F
		if n <= 0 {
			n = 1
		}
		if f <= 0 {
			f = 1
		}
		return rng.NormFloat64() * math.Sqrt(f/n), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownWeightInit, w.Name)
	}
}

// Solver is the gradient update policy of a weight together with its state.
// Momentum is the SGD momentum or the Adam first-moment decay; Momentum2 is
// the Adam second-moment decay.
type Solver struct {
	Name         string  `json:"name"`
	LearningRate float64 `json:"learning_rate"`
	Momentum     float64 `json:"momentum,omitempty"`
	Momentum2    float64 `json:"momentum2,omitempty"`
	Delta        float64 `json:"delta,omitempty"`
	GradClip     float64 `json:"grad_clip,omitempty"`

	Velocity      float64 `json:"velocity,omitempty"`
	MomentumPrev  float64 `json:"momentum_prev,omitempty"`
	Momentum2Prev float64 `json:"momentum2_prev,omitempty"`
	Iteration     int     `json:"iteration,omitempty"`
}

func SGDSolver(learningRate, momentum float64) Solver {
	return Solver{Name: SolverSGD, LearningRate: learningRate, Momentum: momentum}
}

func AdamSolver(learningRate, beta1, beta2, delta float64) Solver {
	return Solver{Name: SolverAdam, LearningRate: learningRate, Momentum: beta1, Momentum2: beta2, Delta: delta}
}

func DummySolver() Solver {
	return Solver{Name: SolverDummy}
}

func (s Solver) Validate() error {
	switch s.Name {
	case SolverSGD, SolverAdam, SolverDummy:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSolver, s.Name)
	}
}

// Fresh returns the solver configuration with accumulated state cleared.
func (s Solver) Fresh() Solver {
	s.Velocity = 0
	s.MomentumPrev = 0
	s.Momentum2Prev = 0
	s.Iteration = 0
	return s
}

// Update returns the new weight value and advances the solver state.
func (s *Solver) Update(weight, grad float64) (float64, error) {
	if s.GradClip > 0 {
		grad = math.Max(-s.GradClip, math.Min(s.GradClip, grad))
	}
	switch s.Name {
	case SolverDummy:
		return weight, nil
	case SolverSGD:
		s.Velocity = s.Momentum*s.Velocity + s.LearningRate*grad
		return weight - s.Velocity, nil
	case SolverAdam:
		s.Iteration++
		s.MomentumPrev = s.Momentum*s.MomentumPrev + (1-s.Momentum)*grad
		s.Momentum2Prev = s.Momentum2*s.Momentum2Prev + (1-s.Momentum2)*grad*grad
		mHat := s.MomentumPrev / (1 - math.Pow(s.Momentum, float64(s.Iteration)))
		vHat := s.Momentum2Prev / (1 - math.Pow(s.Momentum2, float64(s.Iteration)))
		return weight - s.LearningRate*mHat/(math.Sqrt(vHat)+s.Delta), nil
	default:
		return weight, fmt.Errorf("%w: %q", ErrUnknownSolver, s.Name)
	}
}
