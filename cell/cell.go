// Package cell defines the per-node recurrent unit of a Graph LSTM.
//
// A Cell sees three things at every timestep: its own input, its own previous
// (memory, hidden) state and the previous states of its graph neighbours. The
// neighbour states are a side input rather than part of the cell's own state,
// so a cell never carries another node's memory forward.
package cell

import (
	"errors"
	"fmt"

	"github.com/smallnest/graphlstm/tensor"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidOption is returned for unknown or wrong-typed cell settings.
	ErrInvalidOption = errors.New("invalid cell option")

	// ErrInvalidState is returned when a state or input does not have the
	// shape the cell expects.
	ErrInvalidState = errors.New("invalid cell state")
)

// State is the (memory, hidden) pair of one node, each [batch, units].
type State struct {
	Memory *mat.Dense
	Hidden *mat.Dense
}

// ZeroState returns an all-zero state.
func ZeroState(batch, units int) State {
	return State{
		Memory: tensor.Zeros(batch, units),
		Hidden: tensor.Zeros(batch, units),
	}
}

// Cell is the recurrent unit owned by a graph node.
type Cell interface {
	// Call computes one timestep. neighbours holds the previous-timestep
	// states of the node's neighbours and may be empty.
	Call(input *mat.Dense, own State, neighbours []State) (*mat.Dense, State, error)

	// StateSize is the width of Memory and Hidden.
	StateSize() int

	// OutputSize is the width of the output.
	OutputSize() int
}

// Func adapts a function to Cell. It is handy for fixed or echoing cells in tests.
type Func struct {
	Units int
	Fn    func(input *mat.Dense, own State, neighbours []State) (*mat.Dense, State, error)
}

var _ Cell = Func{}

// Call implements Cell.
func (f Func) Call(input *mat.Dense, own State, neighbours []State) (*mat.Dense, State, error) {
	return f.Fn(input, own, neighbours)
}

// StateSize implements Cell.
func (f Func) StateSize() int { return f.Units }

// OutputSize implements Cell.
func (f Func) OutputSize() int { return f.Units }

func checkState(name string, s State, batch, units int) error {
	if s.Memory == nil || s.Hidden == nil {
		return fmt.Errorf("%w: %s has a nil component", ErrInvalidState, name)
	}
	for _, m := range []*mat.Dense{s.Memory, s.Hidden} {
		if r, c := m.Dims(); r != batch || c != units {
			return fmt.Errorf("%w: %s is [%d,%d], want [%d,%d]", ErrInvalidState, name, r, c, batch, units)
		}
	}
	return nil
}
