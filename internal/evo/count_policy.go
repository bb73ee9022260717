package evo

import (
	"fmt"
	"math"
	"math/rand"

	"evonet/internal/model"
)

// MutationCountPolicy determines how many modifications of one kind a
// generation applies to a model.
type MutationCountPolicy interface {
	Name() string
	MutationCount(m *model.Model, rng *rand.Rand) (int, error)
}

type ConstMutationCount struct {
	Count int
}

func (ConstMutationCount) Name() string {
	return "const"
}

func (p ConstMutationCount) MutationCount(_ *model.Model, _ *rand.Rand) (int, error) {
	if p.Count < 0 {
		return 0, fmt.Errorf("const mutation count must be >= 0")
	}
	return p.Count, nil
}

// LinearMutationCount scales with the number of weights.
type LinearMutationCount struct {
	Multiplier float64
	MaxCount   int
}

func (LinearMutationCount) Name() string {
	return "weight_count_linear"
}

func (p LinearMutationCount) MutationCount(m *model.Model, _ *rand.Rand) (int, error) {
	if p.Multiplier <= 0 {
		return 0, fmt.Errorf("linear multiplier must be > 0")
	}
	count := int(math.Round(float64(m.WeightCount()) * p.Multiplier))
	return clampCount(count, p.MaxCount), nil
}

// ExponentialMutationCount draws uniformly from [1, round(W^Power)] where W
// is the number of weights. Without a random source it returns the bound.
type ExponentialMutationCount struct {
	Power    float64
	MaxCount int
}

func (ExponentialMutationCount) Name() string {
	return "weight_count_exponential"
}

func (p ExponentialMutationCount) MutationCount(m *model.Model, rng *rand.Rand) (int, error) {
	if p.Power <= 0 {
		return 0, fmt.Errorf("exponential power must be > 0")
	}
	bound := clampCount(int(math.Round(math.Pow(float64(max(1, m.WeightCount())), p.Power))), p.MaxCount)
	if rng == nil {
		return bound, nil
	}
	return 1 + rng.Intn(bound), nil
}

func clampCount(count, maxCount int) int {
	if count < 1 {
		count = 1
	}
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

// MutationCountPolicyByName resolves a policy from its configuration name.
func MutationCountPolicyByName(name string, param float64, maxCount int) (MutationCountPolicy, error) {
	switch name {
	case "", "none":
		return nil, nil
	case ConstMutationCount{}.Name():
		return ConstMutationCount{Count: int(param)}, nil
	case LinearMutationCount{}.Name():
		return LinearMutationCount{Multiplier: param, MaxCount: maxCount}, nil
	case ExponentialMutationCount{}.Name():
		return ExponentialMutationCount{Power: param, MaxCount: maxCount}, nil
	default:
		return nil, fmt.Errorf("unsupported mutation count policy: %s", name)
	}
}
