package graph

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/log"
	"github.com/smallnest/graphlstm/weights"
)

// SharedNeighbourConnections shares the neighbour projections of all cells,
// so every edge uses the same weights while other projections stay per node.
const SharedNeighbourConnections = cell.WeightNeighbour

type buildConfig struct {
	confidence     map[string]float64
	index          map[string]int
	cellOptions    []cell.Option
	shared         cell.WeightKind
	store          weights.Store
	presets        map[string]cell.Cell
	ignoreCellType bool
	logger         log.Logger
	err            error
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithConfidence sets per-node confidence. Nodes not in the map get 0, or the
// confidence of their preset Graph LSTM cell. Values must be finite.
func WithConfidence(confidence map[string]float64) BuildOption {
	return func(c *buildConfig) {
		c.confidence = confidence
	}
}

// WithIndex fixes the index of every node. The values must be a permutation
// of [0, N). Without it nodes are indexed in sorted name order.
func WithIndex(index map[string]int) BuildOption {
	return func(c *buildConfig) {
		c.index = index
	}
}

// WithCellOptions passes options to every cell built.
func WithCellOptions(opts ...cell.Option) BuildOption {
	return func(c *buildConfig) {
		c.cellOptions = append(c.cellOptions, opts...)
	}
}

// WithCellSettings passes loosely typed cell settings, see cell.ParseOptions.
// Unrecognized keys make Build fail with ErrInvalidConfig.
func WithCellSettings(settings map[string]any) BuildOption {
	return func(c *buildConfig) {
		opts, err := cell.ParseOptions(settings)
		if err != nil {
			c.fail(err)
			return
		}
		c.cellOptions = append(c.cellOptions, opts...)
	}
}

// WithSharedWeights selects weight kinds shared by all cells.
func WithSharedWeights(kinds cell.WeightKind) BuildOption {
	return func(c *buildConfig) {
		c.shared = kinds
	}
}

// WithWeightStore sets the store the cells create their variables in.
// By default each build gets a fresh in-memory store.
func WithWeightStore(ws weights.Store) BuildOption {
	return func(c *buildConfig) {
		c.store = ws
	}
}

// WithPresetCells places the given cells instead of building new ones.
// Cells that are not *cell.GraphLSTMCell require IgnoreCellType.
func WithPresetCells(cells map[string]cell.Cell) BuildOption {
	return func(c *buildConfig) {
		c.presets = cells
	}
}

// IgnoreCellType allows cells of any type in the graph.
func IgnoreCellType() BuildOption {
	return func(c *buildConfig) {
		c.ignoreCellType = true
	}
}

// WithLogger sets the logger for Build.
func WithLogger(logger log.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

func (c *buildConfig) fail(err error) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
}

// Build annotates topology with indices, confidences and one cell per node.
// topology is a *Topology or an edge list accepted by ParseEdgeList.
func Build(topology any, numUnits int, opts ...BuildOption) (*AnnotatedGraph, error) {
	topo, err := AsTopology(topology)
	if err != nil {
		return nil, err
	}
	if numUnits < 1 {
		return nil, fmt.Errorf("%w: num_units must be a positive integer, got %d", ErrInvalidConfig, numUnits)
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	logger := log.Component(cfg.logger, "build")
	if cfg.store == nil {
		cfg.store = weights.NewMemoryStore()
	}

	for name, v := range cfg.confidence {
		if !topo.Has(name) {
			return nil, fmt.Errorf("%w: confidence given for %q", ErrUnknownNode, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: confidence of %q must be a finite number, got %v", ErrInvalidConfig, name, v)
		}
	}
	for name := range cfg.presets {
		if !topo.Has(name) {
			return nil, fmt.Errorf("%w: preset cell given for %q", ErrUnknownNode, name)
		}
	}

	order, err := indexOrder(topo, cfg.index)
	if err != nil {
		return nil, err
	}

	g := &AnnotatedGraph{
		nodes:      make([]NodeRecord, len(order)),
		ids:        make(map[string]int, len(order)),
		neighbours: make([][]int, len(order)),
		store:      cfg.store,
	}
	for i, name := range order {
		g.ids[name] = i
	}

	for i, name := range order {
		confidence, hasConfidence := cfg.confidence[name]

		c, ok := cfg.presets[name]
		if ok {
			lstm, isGraphLSTM := c.(*cell.GraphLSTMCell)
			switch {
			case isGraphLSTM && hasConfidence && lstm.Confidence() != confidence:
				return nil, fmt.Errorf("%w: confidence %v given for %q, its preset cell uses %v",
					ErrInvalidConfig, confidence, name, lstm.Confidence())
			case isGraphLSTM:
				// the record mirrors the forget-gate bias the cell computes with
				confidence = lstm.Confidence()
			case !cfg.ignoreCellType:
				return nil, fmt.Errorf("%w: preset cell of %q is %T, set IgnoreCellType to allow it", ErrInvalidConfig, name, c)
			}
		} else {
			cellOpts := append([]cell.Option{
				cell.WithScope(name),
				cell.WithConfidence(confidence),
				cell.WithSharedWeights(cfg.shared),
				cell.WithWeightStore(cfg.store),
			}, cfg.cellOptions...)
			c, err = cell.NewGraphLSTMCell(numUnits, cellOpts...)
			if err != nil {
				return nil, fmt.Errorf("%w: node %q: %w", ErrInvalidConfig, name, err)
			}
		}

		g.nodes[i] = NodeRecord{Name: name, Index: i, Confidence: confidence, Cell: c}

		for _, n := range topo.Neighbours(name) {
			g.neighbours[i] = append(g.neighbours[i], g.ids[n])
		}
		slices.Sort(g.neighbours[i])
	}

	logger.Debug("built graph with %d nodes and %d edges, %d units per cell", len(order), len(topo.Edges()), numUnits)
	return g, nil
}

// indexOrder returns node names ordered by index.
func indexOrder(topo *Topology, index map[string]int) ([]string, error) {
	if index == nil {
		order := topo.Nodes()
		sort.Strings(order)
		return order, nil
	}

	n := topo.NodeCount()
	if len(index) != n {
		return nil, fmt.Errorf("%w: index covers %d nodes, graph has %d", ErrInvalidConfig, len(index), n)
	}
	order := make([]string, n)
	for name, i := range index {
		if !topo.Has(name) {
			return nil, fmt.Errorf("%w: index given for %q", ErrUnknownNode, name)
		}
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: index %d of %q is outside [0, %d)", ErrInvalidConfig, i, name, n)
		}
		if order[i] != "" {
			return nil, fmt.Errorf("%w: index %d assigned to both %q and %q", ErrInvalidConfig, i, order[i], name)
		}
		order[i] = name
	}
	return order, nil
}
