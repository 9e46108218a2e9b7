package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation is an element-wise non-linearity.
type Activation func(float64) float64

// Common activations.
var (
	TanhActivation     Activation = math.Tanh
	SigmoidActivation  Activation = sigmoid
	ReLUActivation     Activation = func(v float64) float64 { return math.Max(0, v) }
	IdentityActivation Activation = func(v float64) float64 { return v }
)

var activations = map[string]Activation{
	"tanh":     TanhActivation,
	"sigmoid":  SigmoidActivation,
	"relu":     ReLUActivation,
	"identity": IdentityActivation,
}

// ActivationByName resolves one of "tanh", "sigmoid", "relu" or "identity".
func ActivationByName(name string) (Activation, error) {
	act, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("unknown activation %q", name)
	}
	return act, nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// Sigmoid applies the logistic function element-wise.
func Sigmoid(m mat.Matrix) *mat.Dense {
	return Apply(m, sigmoid)
}

// Tanh applies tanh element-wise.
func Tanh(m mat.Matrix) *mat.Dense {
	return Apply(m, math.Tanh)
}
