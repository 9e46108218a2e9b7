package tensor

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer produces the initial value of a variable.
type Initializer interface {
	Initialize(rows, cols int) (*mat.Dense, error)
}

// InitializerFunc adapts a function to Initializer.
type InitializerFunc func(rows, cols int) (*mat.Dense, error)

// Initialize implements Initializer.
func (f InitializerFunc) Initialize(rows, cols int) (*mat.Dense, error) {
	return f(rows, cols)
}

// ZerosInitializer fills variables with zeros.
type ZerosInitializer struct{}

// Initialize implements Initializer.
func (ZerosInitializer) Initialize(rows, cols int) (*mat.Dense, error) {
	return Zeros(rows, cols), nil
}

// OnesInitializer fills variables with ones.
type OnesInitializer struct{}

// Initialize implements Initializer.
func (OnesInitializer) Initialize(rows, cols int) (*mat.Dense, error) {
	return Ones(rows, cols), nil
}

// ConstantInitializer fills variables from a fixed list of values.
type ConstantInitializer struct {
	Values []float64
}

// Constant returns an initializer for the given values. A single value fills
// the whole variable; otherwise exactly rows*cols values are laid out row-major.
func Constant(values ...float64) ConstantInitializer {
	return ConstantInitializer{Values: values}
}

// Initialize implements Initializer.
func (c ConstantInitializer) Initialize(rows, cols int) (*mat.Dense, error) {
	switch len(c.Values) {
	case 1:
		return Fill(rows, cols, c.Values[0]), nil
	case rows * cols:
		data := make([]float64, len(c.Values))
		copy(data, c.Values)
		return mat.NewDense(rows, cols, data), nil
	default:
		return nil, fmt.Errorf("%w: %d constant values for a [%d,%d] variable", ErrShape, len(c.Values), rows, cols)
	}
}

// GlorotUniform samples from U(-limit, limit) with limit = sqrt(6/(rows+cols)).
// The zero value draws from the global source; NewGlorotUniform gives a
// reproducible stream shared by every variable it initializes.
type GlorotUniform struct {
	mu  sync.Mutex
	src rand.Source
}

// NewGlorotUniform returns a seeded initializer.
func NewGlorotUniform(seed int64) *GlorotUniform {
	return &GlorotUniform{src: rand.NewSource(uint64(seed))}
}

// Initialize implements Initializer.
func (g *GlorotUniform) Initialize(rows, cols int) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: cannot initialize [%d,%d]", ErrShape, rows, cols)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	limit := math.Sqrt(6 / float64(rows+cols))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: g.src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data), nil
}
