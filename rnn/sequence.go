package rnn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Repeat feeds the same per-node inputs at every one of timesteps steps.
func Repeat(step []*mat.Dense, timesteps int) Sequence {
	seq := make(Sequence, timesteps)
	for t := range seq {
		seq[t] = step
	}
	return seq
}

// Last returns the final step of seq, or nil when seq is empty.
func Last(seq Sequence) []*mat.Dense {
	if len(seq) == 0 {
		return nil
	}
	return seq[len(seq)-1]
}

// FromBatchMajor converts data laid out as [batch][time][node][features]
// into a time-major Sequence.
func FromBatchMajor(data [][][][]float64) (Sequence, error) {
	if len(data) == 0 || len(data[0]) == 0 || len(data[0][0]) == 0 {
		return nil, ErrEmptySequence
	}
	batch, steps, nodes := len(data), len(data[0]), len(data[0][0])

	features := make([]int, nodes)
	for k := range features {
		features[k] = len(data[0][0][k])
	}

	seq := make(Sequence, steps)
	for t := range seq {
		seq[t] = make([]*mat.Dense, nodes)
		for k := range seq[t] {
			if features[k] == 0 {
				return nil, fmt.Errorf("node %d has no features", k)
			}
			seq[t][k] = mat.NewDense(batch, features[k], nil)
		}
	}

	for b, sample := range data {
		if len(sample) != steps {
			return nil, fmt.Errorf("sample %d has %d steps, want %d", b, len(sample), steps)
		}
		for t, step := range sample {
			if len(step) != nodes {
				return nil, fmt.Errorf("sample %d step %d has %d nodes, want %d", b, t, len(step), nodes)
			}
			for k, v := range step {
				if len(v) != features[k] {
					return nil, fmt.Errorf("sample %d step %d node %d has %d features, want %d", b, t, k, len(v), features[k])
				}
				seq[t][k].SetRow(b, v)
			}
		}
	}
	return seq, nil
}

// BatchFirst converts a time-major Sequence into [batch][time][node][features].
func BatchFirst(seq Sequence) [][][][]float64 {
	if len(seq) == 0 || len(seq[0]) == 0 || seq[0][0] == nil {
		return nil
	}
	batch, _ := seq[0][0].Dims()

	out := make([][][][]float64, batch)
	for b := range out {
		out[b] = make([][][]float64, len(seq))
		for t, step := range seq {
			out[b][t] = make([][]float64, len(step))
			for k, m := range step {
				out[b][t][k] = mat.Row(nil, b, m)
			}
		}
	}
	return out
}
