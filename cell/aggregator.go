package cell

import (
	"fmt"
	"math"

	"github.com/smallnest/graphlstm/tensor"
	"gonum.org/v1/gonum/mat"
)

// Aggregator folds the hidden states of a node's neighbours into one tensor of
// the same shape. It is never called with an empty slice.
type Aggregator interface {
	Aggregate(ms []*mat.Dense) *mat.Dense
}

// AggregatorFunc adapts a function to Aggregator.
type AggregatorFunc func(ms []*mat.Dense) *mat.Dense

// Aggregate implements Aggregator.
func (f AggregatorFunc) Aggregate(ms []*mat.Dense) *mat.Dense {
	return f(ms)
}

// Built-in aggregators.
var (
	SumAggregator Aggregator = AggregatorFunc(func(ms []*mat.Dense) *mat.Dense {
		return tensor.Sum(toMatrices(ms)...)
	})

	MeanAggregator Aggregator = AggregatorFunc(func(ms []*mat.Dense) *mat.Dense {
		sum := tensor.Sum(toMatrices(ms)...)
		sum.Scale(1/float64(len(ms)), sum)
		return sum
	})

	MaxAggregator Aggregator = AggregatorFunc(func(ms []*mat.Dense) *mat.Dense {
		out := mat.DenseCopyOf(ms[0])
		for _, m := range ms[1:] {
			out.Apply(func(i, j int, v float64) float64 {
				return math.Max(v, m.At(i, j))
			}, out)
		}
		return out
	})
)

var aggregators = map[string]Aggregator{
	"sum":  SumAggregator,
	"mean": MeanAggregator,
	"max":  MaxAggregator,
}

// AggregatorByName resolves "sum", "mean" or "max".
func AggregatorByName(name string) (Aggregator, error) {
	agg, ok := aggregators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown aggregation %q", ErrInvalidOption, name)
	}
	return agg, nil
}

func toMatrices(ms []*mat.Dense) []mat.Matrix {
	out := make([]mat.Matrix, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}
