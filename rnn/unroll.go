package rnn

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/log"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptySequence is returned when there is nothing to unroll.
var ErrEmptySequence = errors.New("empty sequence")

// Unit is a recurrent unit over a tuple of nodes.
type Unit interface {
	Call(ctx context.Context, inputs []*mat.Dense, state []cell.State) ([]*mat.Dense, []cell.State, error)
	StateSize() []int
	OutputSize() []int
	ZeroState(batch int) ([]cell.State, error)
}

// StepListener is notified after every completed step.
type StepListener interface {
	OnStep(ctx context.Context, step int, outputs []*mat.Dense, state []cell.State)
}

// StepListenerFunc is a function adapter for StepListener
type StepListenerFunc func(ctx context.Context, step int, outputs []*mat.Dense, state []cell.State)

// OnStep implements StepListener
func (f StepListenerFunc) OnStep(ctx context.Context, step int, outputs []*mat.Dense, state []cell.State) {
	f(ctx, step, outputs, state)
}

// Sequence is a time-major list of per-node inputs or outputs.
type Sequence [][]*mat.Dense

// Result is the outcome of Unroll.
type Result struct {
	// Outputs holds the unit's outputs of every step.
	Outputs Sequence
	// State is the state after the last step.
	State []cell.State
}

type config struct {
	listeners []StepListener
	logger    log.Logger
}

// Option configures Unroll.
type Option func(*config)

// WithStepListener adds a listener called after each step.
func WithStepListener(l StepListener) Option {
	return func(c *config) {
		c.listeners = append(c.listeners, l)
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Unroll runs unit over every step of seq. A nil initial state is replaced
// by the unit's zero state for the batch size of the first input. The
// context is checked before each step.
func Unroll(ctx context.Context, unit Unit, seq Sequence, initial []cell.State, opts ...Option) (*Result, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := log.Component(cfg.logger, "unroll")

	if len(seq) == 0 || len(seq[0]) == 0 || seq[0][0] == nil {
		return nil, ErrEmptySequence
	}

	state := initial
	if state == nil {
		batch, _ := seq[0][0].Dims()
		zero, err := unit.ZeroState(batch)
		if err != nil {
			return nil, fmt.Errorf("zero state: %w", err)
		}
		state = zero
	}

	res := &Result{Outputs: make(Sequence, 0, len(seq))}
	for t, inputs := range seq {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}

		outputs, next, err := unit.Call(ctx, inputs, state)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		res.Outputs = append(res.Outputs, outputs)
		state = next

		for _, l := range cfg.listeners {
			l.OnStep(ctx, t, outputs, state)
		}
	}

	res.State = state
	logger.Debug("unrolled %d steps", len(seq))
	return res, nil
}
