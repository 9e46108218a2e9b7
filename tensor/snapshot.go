package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is the serializable form of a dense matrix.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Snapshot copies m into a Matrix.
func Snapshot(m mat.Matrix) Matrix {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return Matrix{Rows: r, Cols: c, Data: data}
}

// Dense rebuilds the dense matrix.
func (m Matrix) Dense() (*mat.Dense, error) {
	if m.Rows <= 0 || m.Cols <= 0 || len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("%w: snapshot [%d,%d] holds %d values", ErrShape, m.Rows, m.Cols, len(m.Data))
	}
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return mat.NewDense(m.Rows, m.Cols, data), nil
}
