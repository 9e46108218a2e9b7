package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/log"
	"github.com/smallnest/graphlstm/rnn"
	"github.com/smallnest/graphlstm/store"
	"github.com/smallnest/graphlstm/tensor"
	"gonum.org/v1/gonum/mat"
)

// WeightSnapshotter is implemented by weight stores that can export their values.
type WeightSnapshotter interface {
	Snapshot() map[string]tensor.Matrix
}

// WeightRestorer is implemented by weight stores that can import values.
type WeightRestorer interface {
	Restore(snapshot map[string]tensor.Matrix) error
}

// weightAdopter is implemented by cells that can take over variables that
// were put into their store from outside, see cell.GraphLSTMCell.AdoptStored.
type weightAdopter interface {
	AdoptStored()
}

// CheckpointConfig configures a CheckpointListener
type CheckpointConfig struct {
	// RunID groups the checkpoints of one unroll. Default: a fresh UUID.
	RunID string

	// Every saves after every Every-th step. Default 1.
	Every int

	// SaveWeights also stores a snapshot of the graph's weight store.
	SaveWeights bool

	// Metadata is copied into every checkpoint.
	Metadata map[string]any

	Logger log.Logger
}

// CheckpointListener saves the recurrent state while a net is unrolled.
// Save failures do not stop the unroll; they are logged and kept in Err.
type CheckpointListener struct {
	store  store.CheckpointStore
	graph  *AnnotatedGraph
	config CheckpointConfig
	logger log.Logger

	mu      sync.Mutex
	lastID  string
	lastErr error
	saved   int
}

var _ rnn.StepListener = (*CheckpointListener)(nil)

// NewCheckpointListener creates a listener saving states of g to cs.
func NewCheckpointListener(cs store.CheckpointStore, g *AnnotatedGraph, config CheckpointConfig) *CheckpointListener {
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.Every < 1 {
		config.Every = 1
	}
	return &CheckpointListener{
		store:  cs,
		graph:  g,
		config: config,
		logger: log.Component(config.Logger, "checkpoint"),
	}
}

// RunID returns the run the checkpoints are filed under.
func (cl *CheckpointListener) RunID() string {
	return cl.config.RunID
}

// LastID returns the ID of the most recent checkpoint saved.
func (cl *CheckpointListener) LastID() string {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.lastID
}

// Err returns the most recent save error.
func (cl *CheckpointListener) Err() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.lastErr
}

// OnStep implements rnn.StepListener.
func (cl *CheckpointListener) OnStep(ctx context.Context, step int, _ []*mat.Dense, state []cell.State) {
	if (step+1)%cl.config.Every != 0 {
		return
	}

	cl.mu.Lock()
	version := cl.saved + 1
	cl.mu.Unlock()

	cp, err := cl.checkpoint(step, version, state)
	if err == nil {
		err = cl.store.Save(ctx, cp)
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err != nil {
		cl.lastErr = err
		cl.logger.Error("checkpoint at step %d not saved: %v", step, err)
		return
	}
	cl.lastID = cp.ID
	cl.saved++
	cl.logger.Debug("saved checkpoint %s at step %d", cp.ID, step)
}

func (cl *CheckpointListener) checkpoint(step, version int, state []cell.State) (*store.Checkpoint, error) {
	states := make([]store.NodeState, 0, cl.graph.NodeCount())
	for _, rec := range cl.graph.nodes {
		if rec.Index < 0 || rec.Index >= len(state) {
			return nil, fmt.Errorf("%w: node %q has index %d, state has %d entries", ErrIndexOutOfRange, rec.Name, rec.Index, len(state))
		}
		s := state[rec.Index]
		states = append(states, store.NodeState{
			Node:   rec.Name,
			Index:  rec.Index,
			Memory: tensor.Snapshot(s.Memory),
			Hidden: tensor.Snapshot(s.Hidden),
		})
	}

	metadata := map[string]any{"nodes": cl.graph.NodeCount()}
	for k, v := range cl.config.Metadata {
		metadata[k] = v
	}

	cp := &store.Checkpoint{
		ID:        store.NewCheckpointID(),
		RunID:     cl.config.RunID,
		Step:      step,
		States:    states,
		Metadata:  metadata,
		Timestamp: time.Now(),
		Version:   version,
	}

	if cl.config.SaveWeights {
		snap, ok := cl.graph.store.(WeightSnapshotter)
		if !ok {
			return nil, fmt.Errorf("weight store %T cannot be snapshotted", cl.graph.store)
		}
		cp.Weights = snap.Snapshot()
	}
	return cp, nil
}

// RestoreState loads checkpoint id and returns its states positioned by the
// indices of g. Nodes are matched by name. Weights saved with the checkpoint
// are restored into g's weight store and adopted by its cells.
func RestoreState(ctx context.Context, cs store.CheckpointStore, id string, g *AnnotatedGraph) ([]cell.State, *store.Checkpoint, error) {
	cp, err := cs.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	state := make([]cell.State, g.NodeCount())
	filled := make([]bool, len(state))
	for _, ns := range cp.States {
		rec, err := g.Node(ns.Node)
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint %s: %w", id, err)
		}
		memory, err := ns.Memory.Dense()
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint %s node %q memory: %w", id, ns.Node, err)
		}
		hidden, err := ns.Hidden.Dense()
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint %s node %q hidden: %w", id, ns.Node, err)
		}
		state[rec.Index] = cell.State{Memory: memory, Hidden: hidden}
		filled[rec.Index] = true
	}
	for i, ok := range filled {
		if !ok {
			return nil, nil, fmt.Errorf("checkpoint %s has no state for node %q", id, g.nodes[i].Name)
		}
	}

	if len(cp.Weights) > 0 {
		restorer, ok := g.store.(WeightRestorer)
		if !ok {
			return nil, nil, fmt.Errorf("weight store %T cannot be restored", g.store)
		}
		if err := restorer.Restore(cp.Weights); err != nil {
			return nil, nil, fmt.Errorf("checkpoint %s weights: %w", id, err)
		}
		for _, rec := range g.nodes {
			if a, ok := rec.Cell.(weightAdopter); ok {
				a.AdoptStored()
			}
		}
	}
	return state, cp, nil
}
