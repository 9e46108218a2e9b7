package cell

import (
	"fmt"
	"strings"
	"sync"

	"github.com/smallnest/graphlstm/linear"
	"github.com/smallnest/graphlstm/tensor"
	"github.com/smallnest/graphlstm/weights"
	"gonum.org/v1/gonum/mat"
)

// SharedScope prefixes variables of shared weight kinds.
const SharedScope = "shared"

// DefaultScope prefixes private variables when no scope is set.
const DefaultScope = "graph_lstm_cell"

// GraphLSTMCell is an LSTM unit whose gates also see the aggregated hidden
// states of the node's neighbours:
//
//	i  = σ(x W_xi + h U_hi + agg(h_N) U_ni + b_i)
//	f  = σ(x W_xf + h U_hf + agg(h_N) U_nf + b_f + forget_bias + confidence)
//	o  = σ(x W_xo + h U_ho + agg(h_N) U_no + b_o)
//	g  = act(x W_xc + h U_hc + agg(h_N) U_nc + b_c)
//	m' = f⊙m + i⊙g
//	h' = o⊙act(m')
//
// The neighbour term is dropped for isolated nodes. With neighbour memory
// enabled, agg_j(σ(x W_xf + h_j U_nm + b_f + forget_bias)⊙m_j) is added to m'.
type GraphLSTMCell struct {
	numUnits        int
	forgetBias      float64
	confidence      float64
	activation      tensor.Activation
	activationName  string
	aggregator      Aggregator
	scope           string
	shared          WeightKind
	neighbourMemory bool
	store           weights.Store
	init            tensor.Initializer
	optErr          error

	mu    sync.Mutex
	known map[string]bool
}

var _ Cell = (*GraphLSTMCell)(nil)

// NewGraphLSTMCell creates a cell with numUnits units.
func NewGraphLSTMCell(numUnits int, opts ...Option) (*GraphLSTMCell, error) {
	if numUnits < 1 {
		return nil, fmt.Errorf("%w: num_units must be a positive integer, got %d", ErrInvalidOption, numUnits)
	}

	c := &GraphLSTMCell{
		numUnits:       numUnits,
		forgetBias:     1.0,
		activation:     tensor.TanhActivation,
		activationName: "tanh",
		aggregator:     SumAggregator,
		scope:          DefaultScope,
		init:           &tensor.GlorotUniform{},
		known:          make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.optErr != nil {
		return nil, c.optErr
	}
	if c.store == nil {
		c.store = weights.NewMemoryStore()
	}
	if c.aggregator == nil {
		return nil, fmt.Errorf("%w: nil aggregator", ErrInvalidOption)
	}
	return c, nil
}

// StateSize implements Cell.
func (c *GraphLSTMCell) StateSize() int { return c.numUnits }

// OutputSize implements Cell.
func (c *GraphLSTMCell) OutputSize() int { return c.numUnits }

// ForgetBias returns the constant forget gate bias.
func (c *GraphLSTMCell) ForgetBias() float64 { return c.forgetBias }

// Confidence returns the node confidence.
func (c *GraphLSTMCell) Confidence() float64 { return c.confidence }

// ActivationName returns the name of the activation.
func (c *GraphLSTMCell) ActivationName() string { return c.activationName }

// Scope returns the private variable prefix.
func (c *GraphLSTMCell) Scope() string { return c.scope }

// WeightStore returns the store holding the cell's variables.
func (c *GraphLSTMCell) WeightStore() weights.Store { return c.store }

// Call implements Cell.
func (c *GraphLSTMCell) Call(input *mat.Dense, own State, neighbours []State) (*mat.Dense, State, error) {
	if input == nil {
		return nil, State{}, fmt.Errorf("%w: nil input", ErrInvalidState)
	}
	batch, _ := input.Dims()
	if err := checkState("own state", own, batch, c.numUnits); err != nil {
		return nil, State{}, err
	}
	for j, n := range neighbours {
		if err := checkState(fmt.Sprintf("neighbour state %d", j), n, batch, c.numUnits); err != nil {
			return nil, State{}, err
		}
	}

	var agg *mat.Dense
	if len(neighbours) > 0 {
		hidden := make([]*mat.Dense, len(neighbours))
		for j, n := range neighbours {
			hidden[j] = n.Hidden
		}
		agg = c.aggregator.Aggregate(hidden)
	}

	pre := make(map[string]*mat.Dense, 4)
	for _, g := range []string{"i", "f", "o", "c"} {
		p, err := c.gate(g, input, own.Hidden, agg)
		if err != nil {
			return nil, State{}, fmt.Errorf("gate %s: %w", g, err)
		}
		pre[g] = p
	}

	inGate := tensor.Sigmoid(pre["i"])
	forgetGate := tensor.Sigmoid(tensor.AddScalar(pre["f"], c.forgetBias+c.confidence))
	outGate := tensor.Sigmoid(pre["o"])
	candidate := tensor.Apply(pre["c"], c.activation)

	memory := tensor.Sum(tensor.Mul(forgetGate, own.Memory), tensor.Mul(inGate, candidate))

	if c.neighbourMemory && len(neighbours) > 0 {
		gated := make([]*mat.Dense, len(neighbours))
		for j, n := range neighbours {
			p, err := c.project([]string{
				c.name(WeightInput, "W_xf"),
				c.name(WeightNeighbour, "U_nm"),
				c.name(WeightBias, "b_f"),
			}, []*mat.Dense{input, n.Hidden})
			if err != nil {
				return nil, State{}, fmt.Errorf("neighbour forget gate %d: %w", j, err)
			}
			gated[j] = tensor.Mul(tensor.Sigmoid(tensor.AddScalar(p, c.forgetBias)), n.Memory)
		}
		memory = tensor.Sum(memory, c.aggregator.Aggregate(gated))
	}

	hidden := tensor.Mul(outGate, tensor.Apply(memory, c.activation))
	return hidden, State{Memory: memory, Hidden: hidden}, nil
}

// AdoptStored marks the variables already in the store under the cell's
// scope as created, so the next call reuses them. Used after weights were
// restored into the store of a cell that has not run yet.
func (c *GraphLSTMCell) AdoptStored() {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := c.scope + "/"
	for _, name := range c.store.Names() {
		if strings.HasPrefix(name, prefix) {
			c.known[name] = true
		}
	}
}

func (c *GraphLSTMCell) gate(g string, x, h, agg *mat.Dense) (*mat.Dense, error) {
	names := []string{c.name(WeightInput, "W_x"+g), c.name(WeightHidden, "U_h"+g)}
	inputs := []*mat.Dense{x, h}
	if agg != nil {
		names = append(names, c.name(WeightNeighbour, "U_n"+g))
		inputs = append(inputs, agg)
	}
	names = append(names, c.name(WeightBias, "b_"+g))
	return c.project(names, inputs)
}

// project creates every variable this cell has not seen yet and reuses the
// rest. Shared variables created by another cell count as seen.
func (c *GraphLSTMCell) project(names []string, inputs []*mat.Dense) (*mat.Dense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var reuse []string
	for _, name := range names {
		if c.known[name] || (strings.HasPrefix(name, SharedScope+"/") && c.store.Has(name)) {
			reuse = append(reuse, name)
		}
	}

	out, err := linear.Project(c.store, names, inputs, c.numUnits, true,
		linear.WithWeightInitializer(c.init),
		linear.WithReuse(reuse...))
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		c.known[name] = true
	}
	return out, nil
}

func (c *GraphLSTMCell) name(kind WeightKind, base string) string {
	if c.shared&kind != 0 {
		return SharedScope + "/" + base
	}
	return c.scope + "/" + base
}
