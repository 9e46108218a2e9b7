package rnn

import (
	"context"
	"sync"
	"time"

	"github.com/smallnest/graphlstm/cell"
	"gonum.org/v1/gonum/mat"
)

// StepEvent is emitted for every completed step of a streamed unroll.
type StepEvent struct {
	Step      int
	Timestamp time.Time
	Outputs   []*mat.Dense
	State     []cell.State
}

// StreamConfig configures streaming behavior
type StreamConfig struct {
	// BufferSize is the size of the step channel buffer
	BufferSize int

	// Block makes the unroll wait for the consumer when the buffer is full.
	// Otherwise the event is dropped and counted.
	Block bool
}

// DefaultStreamConfig returns the default streaming configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		BufferSize: 100,
		Block:      true,
	}
}

// StreamResult contains the channels returned by Stream
type StreamResult struct {
	// Steps receives one event per completed step and is closed when the
	// unroll returns.
	Steps <-chan StepEvent

	// Result receives the final result when the unroll succeeds
	Result <-chan *Result

	// Errors receives the error when the unroll fails
	Errors <-chan error

	// Done is closed when streaming is complete
	Done <-chan struct{}

	// Cancel stops the unroll before its next step
	Cancel context.CancelFunc

	listener *StreamingListener
}

// Dropped returns the number of step events dropped because the buffer was full.
func (r *StreamResult) Dropped() int {
	return r.listener.Dropped()
}

// StreamingListener implements StepListener by sending step events to a channel
type StreamingListener struct {
	events chan<- StepEvent
	config StreamConfig

	mu      sync.RWMutex
	dropped int
	closed  bool
}

// NewStreamingListener creates a new streaming listener
func NewStreamingListener(events chan<- StepEvent, config StreamConfig) *StreamingListener {
	return &StreamingListener{
		events: events,
		config: config,
	}
}

// OnStep implements StepListener
func (sl *StreamingListener) OnStep(ctx context.Context, step int, outputs []*mat.Dense, state []cell.State) {
	sl.mu.RLock()
	closed := sl.closed
	sl.mu.RUnlock()
	if closed {
		return
	}

	event := StepEvent{
		Step:      step,
		Timestamp: time.Now(),
		Outputs:   outputs,
		State:     state,
	}

	if sl.config.Block {
		select {
		case sl.events <- event:
		case <-ctx.Done():
		}
		return
	}

	select {
	case sl.events <- event:
	default:
		sl.mu.Lock()
		sl.dropped++
		sl.mu.Unlock()
	}
}

// Close marks the listener as closed to prevent sending to closed channels
func (sl *StreamingListener) Close() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.closed = true
}

// Dropped returns the number of dropped events
func (sl *StreamingListener) Dropped() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.dropped
}

// Stream runs Unroll in a goroutine and reports every step as it completes.
// Exactly one of Result and Errors receives a value before Done is closed.
func Stream(ctx context.Context, unit Unit, seq Sequence, initial []cell.State, config StreamConfig, opts ...Option) *StreamResult {
	if config.BufferSize < 0 {
		config.BufferSize = 0
	}

	steps := make(chan StepEvent, config.BufferSize)
	resultChan := make(chan *Result, 1)
	errorChan := make(chan error, 1)
	doneChan := make(chan struct{})

	streamCtx, cancel := context.WithCancel(ctx)
	listener := NewStreamingListener(steps, config)

	unrollOpts := make([]Option, 0, len(opts)+1)
	unrollOpts = append(unrollOpts, opts...)
	unrollOpts = append(unrollOpts, WithStepListener(listener))

	go func() {
		defer close(doneChan)

		res, err := Unroll(streamCtx, unit, seq, initial, unrollOpts...)
		listener.Close()
		close(steps)

		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- res
	}()

	return &StreamResult{
		Steps:    steps,
		Result:   resultChan,
		Errors:   errorChan,
		Done:     doneChan,
		Cancel:   cancel,
		listener: listener,
	}
}
