package tensor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when tensor dimensions do not line up.
var ErrShape = errors.New("tensor shape mismatch")

// Zeros returns a rows x cols matrix filled with zeros.
func Zeros(rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, nil)
}

// Ones returns a rows x cols matrix filled with ones.
func Ones(rows, cols int) *mat.Dense {
	return Fill(rows, cols, 1)
}

// Fill returns a rows x cols matrix with every element set to v.
func Fill(rows, cols int, v float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(rows, cols, data)
}

// FromRows builds a matrix from row slices. All rows must have the same length.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrShape)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// MustFromRows is FromRows for literals known to be well formed.
func MustFromRows(rows [][]float64) *mat.Dense {
	m, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Apply returns fn applied to every element of m.
func Apply(m mat.Matrix, fn func(float64) float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, m)
	return &out
}

// Mul returns the element-wise (Hadamard) product of a and b.
func Mul(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.MulElem(a, b)
	return &out
}

// Sum returns the element-wise sum of ms. At least one matrix is required.
func Sum(ms ...mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(ms[0])
	for _, m := range ms[1:] {
		out.Add(out, m)
	}
	return out
}

// AddScalar returns m with s added to every element.
func AddScalar(m mat.Matrix, s float64) *mat.Dense {
	return Apply(m, func(v float64) float64 { return v + s })
}

// Neg returns -m.
func Neg(m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(-1, m)
	return &out
}

// AddRow broadcasts the [1, cols] row vector over every row of m.
func AddRow(m mat.Matrix, row mat.Matrix) (*mat.Dense, error) {
	r, c := m.Dims()
	rr, rc := row.Dims()
	if rr != 1 || rc != c {
		return nil, fmt.Errorf("%w: cannot broadcast [%d,%d] over [%d,%d]", ErrShape, rr, rc, r, c)
	}
	out := mat.DenseCopyOf(m)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, out.At(i, j)+row.At(0, j))
		}
	}
	return out, nil
}

// Equal reports whether a and b have the same shape and elements.
func Equal(a, b mat.Matrix) bool {
	return mat.Equal(a, b)
}

// SplitNodes slices a flattened [batch, nodeCount*size] tensor into nodeCount
// tensors of shape [batch, size], positioned by node index.
func SplitNodes(x mat.Matrix, nodeCount int) ([]*mat.Dense, error) {
	if nodeCount <= 0 {
		return nil, fmt.Errorf("%w: node count must be positive, got %d", ErrShape, nodeCount)
	}
	rows, cols := x.Dims()
	if cols%nodeCount != 0 {
		return nil, fmt.Errorf("%w: %d columns cannot be split across %d nodes", ErrShape, cols, nodeCount)
	}
	size := cols / nodeCount
	src := mat.DenseCopyOf(x)
	parts := make([]*mat.Dense, nodeCount)
	for k := range parts {
		parts[k] = mat.DenseCopyOf(src.Slice(0, rows, k*size, (k+1)*size))
	}
	return parts, nil
}

// JoinNodes is the inverse of SplitNodes.
func JoinNodes(parts []*mat.Dense) (*mat.Dense, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: nothing to join", ErrShape)
	}
	rows, size := parts[0].Dims()
	out := mat.NewDense(rows, size*len(parts), nil)
	for k, p := range parts {
		r, c := p.Dims()
		if r != rows || c != size {
			return nil, fmt.Errorf("%w: node %d is [%d,%d], want [%d,%d]", ErrShape, k, r, c, rows, size)
		}
		out.Slice(0, rows, k*size, (k+1)*size).(*mat.Dense).Copy(p)
	}
	return out, nil
}
