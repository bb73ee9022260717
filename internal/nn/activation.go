package nn

import "math"

const (
	ActivationReLU        = "relu"
	ActivationLinear      = "linear"
	ActivationELU         = "elu"
	ActivationSigmoid     = "sigmoid"
	ActivationTanH        = "tanh"
	ActivationExponential = "exponential"
	ActivationLog         = "log"
	ActivationInverse     = "inverse"
	ActivationLeakyReLU   = "leaky_relu"
	ActivationPow         = "pow"
	ActivationSin         = "sin"
	ActivationCos         = "cos"
)

// Activation is a node's activation function tag plus its parameter payload.
// The gradient is resolved from the same registry entry.
type Activation struct {
	Name  string  `json:"name"`
	Param float64 `json:"param,omitempty"`
}

func (a Activation) Eval(x float64) (float64, error) {
	entry, err := lookupActivation(a.Name)
	if err != nil {
		return 0, err
	}
	return entry.fn(x, a.Param), nil
}

func (a Activation) Grad(x float64) (float64, error) {
	entry, err := lookupActivation(a.Name)
	if err != nil {
		return 0, err
	}
	return entry.grad(x, a.Param), nil
}

// GradName is the tag of the paired gradient operator.
func (a Activation) GradName() string {
	return a.Name + "_grad"
}

// avoid blowing up on log/inverse near zero
const minMagnitude = 1e-24

func initializeBuiltInActivations() {
	MustRegisterActivation(ActivationReLU,
		func(x, _ float64) float64 {
			if x > 0 {
				return x
			}
			return 0
		},
		func(x, _ float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		}, 0)
	MustRegisterActivation(ActivationLinear,
		func(x, _ float64) float64 { return x },
		func(_, _ float64) float64 { return 1 }, 0)
	MustRegisterActivation(ActivationELU,
		func(x, alpha float64) float64 {
			if x > 0 {
				return x
			}
			return alpha * (math.Exp(x) - 1)
		},
		func(x, alpha float64) float64 {
			if x > 0 {
				return 1
			}
			return alpha * math.Exp(x)
		}, 1)
	MustRegisterActivation(ActivationSigmoid,
		func(x, _ float64) float64 { return 1 / (1 + math.Exp(-x)) },
		func(x, _ float64) float64 {
			s := 1 / (1 + math.Exp(-x))
			return s * (1 - s)
		}, 0)
	MustRegisterActivation(ActivationTanH,
		func(x, _ float64) float64 { return math.Tanh(x) },
		func(x, _ float64) float64 {
			y := math.Tanh(x)
			return 1 - y*y
		}, 0)
	MustRegisterActivation(ActivationExponential,
		func(x, _ float64) float64 { return math.Exp(x) },
		func(x, _ float64) float64 { return math.Exp(x) }, 0)
	MustRegisterActivation(ActivationLog,
		func(x, _ float64) float64 { return math.Log(math.Max(x, minMagnitude)) },
		func(x, _ float64) float64 { return 1 / math.Max(x, minMagnitude) }, 0)
	MustRegisterActivation(ActivationInverse,
		func(x, _ float64) float64 {
			if math.Abs(x) < minMagnitude {
				return 0
			}
			return 1 / x
		},
		func(x, _ float64) float64 {
			if math.Abs(x) < minMagnitude {
				return 0
			}
			return -1 / (x * x)
		}, 0)
	MustRegisterActivation(ActivationLeakyReLU,
		func(x, alpha float64) float64 {
			if x >= 0 {
				return x
			}
			return alpha * x
		},
		func(x, alpha float64) float64 {
			if x >= 0 {
				return 1
			}
			return alpha
		}, 0.1)
	MustRegisterActivation(ActivationPow,
		func(x, exponent float64) float64 { return math.Pow(x, exponent) },
		func(x, exponent float64) float64 { return exponent * math.Pow(x, exponent-1) }, 0.5)
	MustRegisterActivation(ActivationSin,
		func(x, _ float64) float64 { return math.Sin(x) },
		func(x, _ float64) float64 { return math.Cos(x) }, 0)
	MustRegisterActivation(ActivationCos,
		func(x, _ float64) float64 { return math.Cos(x) },
		func(x, _ float64) float64 { return -math.Sin(x) }, 0)
}
