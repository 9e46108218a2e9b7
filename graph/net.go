package graph

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/log"
	"gonum.org/v1/gonum/mat"
)

// Net runs every node's cell for one timestep. It behaves as one recurrent
// unit whose inputs, outputs and state are tuples positioned by node index.
// Neighbour states always come from the incoming state, so the nodes of one
// step do not depend on each other.
type Net struct {
	graph     *AnnotatedGraph
	parallel  bool
	listeners []NodeListener
	logger    log.Logger

	// warm is set after the first successful call. Cells create their
	// variables on first use, so that call always runs in index order.
	warm atomic.Bool
}

// NetOption configures a Net.
type NetOption func(*Net)

// WithParallel evaluates the nodes of a step concurrently once the first
// step has run.
func WithParallel(parallel bool) NetOption {
	return func(n *Net) {
		n.parallel = parallel
	}
}

// WithNodeListener adds a node event listener.
func WithNodeListener(l NodeListener) NetOption {
	return func(n *Net) {
		n.listeners = append(n.listeners, l)
	}
}

// WithNetLogger sets the logger of the net.
func WithNetLogger(logger log.Logger) NetOption {
	return func(n *Net) {
		n.logger = logger
	}
}

// NewNet wraps an annotated graph.
func NewNet(g *AnnotatedGraph, opts ...NetOption) (*Net, error) {
	if g == nil || g.NodeCount() == 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrInvalidTopology)
	}
	n := &Net{graph: g}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = log.Component(n.logger, "net")
	return n, nil
}

// Graph returns the underlying annotated graph.
func (n *Net) Graph() *AnnotatedGraph {
	return n.graph
}

// Cell returns the cell of the named node.
func (n *Net) Cell(name string) (cell.Cell, error) {
	rec, err := n.graph.Node(name)
	if err != nil {
		return nil, err
	}
	if rec.Cell == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingCell, name)
	}
	return rec.Cell, nil
}

// StateSize returns the state width of each node, positioned by index.
func (n *Net) StateSize() []int {
	return n.sizes(func(c cell.Cell) int { return c.StateSize() })
}

// OutputSize returns the output width of each node, positioned by index.
func (n *Net) OutputSize() []int {
	return n.sizes(func(c cell.Cell) int { return c.OutputSize() })
}

func (n *Net) sizes(size func(cell.Cell) int) []int {
	out := make([]int, n.graph.NodeCount())
	for _, rec := range n.graph.nodes {
		if rec.Cell != nil && rec.Index >= 0 && rec.Index < len(out) {
			out[rec.Index] = size(rec.Cell)
		}
	}
	return out
}

// ZeroState returns an all-zero state for every node.
func (n *Net) ZeroState(batch int) ([]cell.State, error) {
	state := make([]cell.State, n.graph.NodeCount())
	for _, rec := range n.graph.nodes {
		if err := n.checkIndex(rec, len(state)); err != nil {
			return nil, err
		}
		if rec.Cell == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingCell, rec.Name)
		}
		state[rec.Index] = cell.ZeroState(batch, rec.Cell.StateSize())
	}
	return state, nil
}

// Call computes one timestep. inputs and state must hold exactly one entry
// per node, positioned by index. The returned tuples are positioned the same
// way.
func (n *Net) Call(ctx context.Context, inputs []*mat.Dense, state []cell.State) ([]*mat.Dense, []cell.State, error) {
	count := n.graph.NodeCount()
	if len(inputs) != count || len(state) != count {
		return nil, nil, fmt.Errorf("%w: graph has %d nodes, got %d inputs and %d states",
			ErrIndexOutOfRange, count, len(inputs), len(state))
	}
	outputs := make([]*mat.Dense, count)
	next := make([]cell.State, count)

	parallel := n.parallel && n.warm.Load()
	err := forEachNode(ctx, count, parallel, func(ctx context.Context, id int) error {
		rec := n.graph.nodes[id]
		if err := n.checkIndex(rec, len(inputs)); err != nil {
			return err
		}
		if err := n.checkIndex(rec, len(state)); err != nil {
			return err
		}
		if rec.Cell == nil {
			return fmt.Errorf("%w: %q", ErrMissingCell, rec.Name)
		}

		neighbours := make([]cell.State, 0, len(n.graph.neighbours[id]))
		for _, other := range n.graph.neighbours[id] {
			nrec := n.graph.nodes[other]
			if err := n.checkIndex(nrec, len(state)); err != nil {
				return err
			}
			neighbours = append(neighbours, state[nrec.Index])
		}

		own := state[rec.Index]
		n.notify(ctx, NodeEventStart, rec, own, nil)
		out, newState, err := rec.Cell.Call(inputs[rec.Index], own, neighbours)
		if err != nil {
			n.notify(ctx, NodeEventError, rec, own, err)
			return fmt.Errorf("node %q: %w", rec.Name, err)
		}
		n.notify(ctx, NodeEventComplete, rec, newState, nil)

		outputs[rec.Index] = out
		next[rec.Index] = newState
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if n.warm.CompareAndSwap(false, true) {
		n.logger.Debug("first step done for %d nodes", count)
	}
	return outputs, next, nil
}

func (n *Net) checkIndex(rec NodeRecord, length int) error {
	if rec.Index < 0 || rec.Index >= length || rec.Index >= n.graph.NodeCount() {
		return fmt.Errorf("%w: node %q has index %d, graph has %d nodes and the tuple has %d entries",
			ErrIndexOutOfRange, rec.Name, rec.Index, n.graph.NodeCount(), length)
	}
	return nil
}

func (n *Net) notify(ctx context.Context, event NodeEvent, rec NodeRecord, state cell.State, err error) {
	for _, l := range n.listeners {
		l.OnNodeEvent(ctx, event, rec, state, err)
	}
}
