// Package linear builds affine combinations of several inputs against named
// weight variables.
//
// Project enforces an explicit create-once / reuse-rest discipline: names listed
// with WithReuse must already exist in the weight store, every other name must
// not exist yet and is created by the call.
//
//	// first call creates w_x and w_h and b
//	y, err := linear.Project(ws, []string{"w_x", "w_h", "b"}, []*mat.Dense{x, h}, 8, true)
//
//	// later calls reuse them
//	y, err = linear.Project(ws, []string{"w_x", "w_h", "b"}, []*mat.Dense{x, h}, 8, true,
//		linear.WithReuse("w_x", "w_h", "b"))
package linear

import (
	"errors"
	"fmt"
	"slices"

	"github.com/smallnest/graphlstm/tensor"
	"github.com/smallnest/graphlstm/weights"
	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when weight names, inputs and variable shapes
// do not line up.
var ErrShapeMismatch = errors.New("projection shape mismatch")

type options struct {
	weightInit tensor.Initializer
	biasInit   tensor.Initializer
	reuse      []string
}

// Option configures Project.
type Option func(*options)

// WithWeightInitializer sets the initializer for newly created weight matrices.
func WithWeightInitializer(init tensor.Initializer) Option {
	return func(o *options) {
		o.weightInit = init
	}
}

// WithBiasInitializer sets the initializer for a newly created bias.
func WithBiasInitializer(init tensor.Initializer) Option {
	return func(o *options) {
		o.biasInit = init
	}
}

// WithReuse declares names that must refer to existing variables.
func WithReuse(names ...string) Option {
	return func(o *options) {
		o.reuse = append(o.reuse, names...)
	}
}

// Project returns sum_i inputs[i] @ W_i (+ b), where W_i is the variable named
// weightNames[i]. With addBias the last name is the [1, outputSize] bias.
func Project(ws weights.Store, weightNames []string, inputs []*mat.Dense, outputSize int, addBias bool, opts ...Option) (*mat.Dense, error) {
	o := options{
		weightInit: &tensor.GlorotUniform{},
		biasInit:   tensor.ZerosInitializer{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(weightNames, inputs, outputSize, addBias, o.reuse); err != nil {
		return nil, err
	}

	batch, _ := inputs[0].Dims()
	var out *mat.Dense
	for i, x := range inputs {
		_, features := x.Dims()
		w, err := variable(ws, weightNames[i], features, outputSize, o.weightInit, slices.Contains(o.reuse, weightNames[i]))
		if err != nil {
			return nil, err
		}

		var term mat.Dense
		term.Mul(x, w.Value)
		if out == nil {
			out = &term
		} else {
			out.Add(out, &term)
		}
	}

	if addBias {
		name := weightNames[len(weightNames)-1]
		b, err := variable(ws, name, 1, outputSize, o.biasInit, slices.Contains(o.reuse, name))
		if err != nil {
			return nil, err
		}
		out, err = tensor.AddRow(out, b.Value)
		if err != nil {
			return nil, err
		}
	}

	if r, c := out.Dims(); r != batch || c != outputSize {
		return nil, fmt.Errorf("%w: result is [%d,%d], want [%d,%d]", ErrShapeMismatch, r, c, batch, outputSize)
	}
	return out, nil
}

func validate(weightNames []string, inputs []*mat.Dense, outputSize int, addBias bool, reuse []string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: inputs must not be empty", ErrShapeMismatch)
	}
	if len(weightNames) == 0 {
		return fmt.Errorf("%w: weight_names must not be empty", ErrShapeMismatch)
	}
	if addBias && len(weightNames) != len(inputs)+1 {
		return fmt.Errorf("%w: add_bias is true, so weight_names must be exactly one element longer than inputs (got %d names, %d inputs)",
			ErrShapeMismatch, len(weightNames), len(inputs))
	}
	if !addBias && len(weightNames) != len(inputs) {
		return fmt.Errorf("%w: add_bias is false, so weight_names and inputs must have the same length (got %d names, %d inputs)",
			ErrShapeMismatch, len(weightNames), len(inputs))
	}
	if outputSize <= 0 {
		return fmt.Errorf("%w: output size must be positive, got %d", ErrShapeMismatch, outputSize)
	}

	for i, x := range inputs {
		if x == nil {
			return fmt.Errorf("%w: input %d is nil", ErrShapeMismatch, i)
		}
	}
	batch, _ := inputs[0].Dims()
	for i, x := range inputs {
		if r, _ := x.Dims(); r != batch {
			return fmt.Errorf("%w: input %d has batch size %d, input 0 has %d", ErrShapeMismatch, i, r, batch)
		}
	}

	for _, name := range reuse {
		if !slices.Contains(weightNames, name) {
			return fmt.Errorf("%w: `reuse_weights` entry %q is not one of the weight names", weights.ErrNotFound, name)
		}
	}
	return nil
}

func variable(ws weights.Store, name string, rows, cols int, init tensor.Initializer, reuse bool) (*weights.Variable, error) {
	if !reuse {
		return ws.Create(name, rows, cols, init)
	}

	v, err := ws.Get(name)
	if err != nil {
		return nil, err
	}
	if r, c := v.Value.Dims(); r != rows || c != cols {
		return nil, fmt.Errorf("%w: variable %s is [%d,%d], projection needs [%d,%d]", ErrShapeMismatch, name, r, c, rows, cols)
	}
	return v, nil
}
