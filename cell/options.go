package cell

import (
	"fmt"
	"sort"

	"github.com/smallnest/graphlstm/tensor"
	"github.com/smallnest/graphlstm/weights"
)

// WeightKind selects groups of cell variables. Kinds listed as shared resolve
// to one variable for every cell instead of one per node.
type WeightKind uint8

const (
	// WeightInput covers the input projections W_x*.
	WeightInput WeightKind = 1 << iota
	// WeightHidden covers the own-hidden projections U_h*.
	WeightHidden
	// WeightNeighbour covers the neighbour projections U_n* and U_nm.
	WeightNeighbour
	// WeightBias covers the gate biases b_*.
	WeightBias

	// WeightNone shares nothing.
	WeightNone WeightKind = 0
	// WeightAll shares every variable.
	WeightAll = WeightInput | WeightHidden | WeightNeighbour | WeightBias
)

var weightKindNames = map[string]WeightKind{
	"none":      WeightNone,
	"input":     WeightInput,
	"hidden":    WeightHidden,
	"neighbour": WeightNeighbour,
	"bias":      WeightBias,
	"all":       WeightAll,
}

// ParseWeightKinds combines kind names ("input", "hidden", "neighbour",
// "bias", "all", "none") into one WeightKind.
func ParseWeightKinds(names ...string) (WeightKind, error) {
	var kinds WeightKind
	for _, name := range names {
		k, ok := weightKindNames[name]
		if !ok {
			return WeightNone, fmt.Errorf("%w: unknown weight kind %q", ErrInvalidOption, name)
		}
		kinds |= k
	}
	return kinds, nil
}

// Option configures a GraphLSTMCell.
type Option func(*GraphLSTMCell)

// WithForgetBias sets the constant added to the forget gate. Default 1.0.
func WithForgetBias(bias float64) Option {
	return func(c *GraphLSTMCell) {
		c.forgetBias = bias
	}
}

// WithActivation sets the memory and candidate activation by name. Default "tanh".
// An unknown name makes NewGraphLSTMCell fail.
func WithActivation(name string) Option {
	return func(c *GraphLSTMCell) {
		act, err := tensor.ActivationByName(name)
		if err != nil {
			c.optErr = fmt.Errorf("%w: %w", ErrInvalidOption, err)
			return
		}
		c.activationName = name
		c.activation = act
	}
}

// WithAggregator sets how neighbour states are combined. Default SumAggregator.
func WithAggregator(agg Aggregator) Option {
	return func(c *GraphLSTMCell) {
		c.aggregator = agg
	}
}

// WithConfidence sets the node confidence added to the forget gate bias.
func WithConfidence(confidence float64) Option {
	return func(c *GraphLSTMCell) {
		c.confidence = confidence
	}
}

// WithScope sets the prefix of the cell's private variables, usually the node name.
func WithScope(scope string) Option {
	return func(c *GraphLSTMCell) {
		c.scope = scope
	}
}

// WithSharedWeights makes the given kinds resolve to shared variables.
func WithSharedWeights(kinds WeightKind) Option {
	return func(c *GraphLSTMCell) {
		c.shared = kinds
	}
}

// WithNeighbourMemory adds the gated neighbour memories to the new memory.
func WithNeighbourMemory(enabled bool) Option {
	return func(c *GraphLSTMCell) {
		c.neighbourMemory = enabled
	}
}

// WithWeightStore sets the store holding the cell's variables.
func WithWeightStore(ws weights.Store) Option {
	return func(c *GraphLSTMCell) {
		c.store = ws
	}
}

// WithInitializer sets the initializer for newly created weight matrices.
func WithInitializer(init tensor.Initializer) Option {
	return func(c *GraphLSTMCell) {
		c.init = init
	}
}

// ParseOptions converts loosely typed settings, as read from a config file,
// into options. Recognized keys are forget_bias (number), activation (string),
// aggregation (string) and neighbour_memory (bool). Anything else fails.
func ParseOptions(settings map[string]any) ([]Option, error) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]Option, 0, len(keys))
	for _, key := range keys {
		value := settings[key]
		switch key {
		case "forget_bias":
			f, ok := toFloat(value)
			if !ok {
				return nil, fmt.Errorf("%w: forget_bias must be a number, got %T", ErrInvalidOption, value)
			}
			opts = append(opts, WithForgetBias(f))
		case "activation":
			name, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: activation must be a string, got %T", ErrInvalidOption, value)
			}
			if _, err := tensor.ActivationByName(name); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
			}
			opts = append(opts, WithActivation(name))
		case "aggregation":
			name, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: aggregation must be a string, got %T", ErrInvalidOption, value)
			}
			agg, err := AggregatorByName(name)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithAggregator(agg))
		case "neighbour_memory":
			enabled, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: neighbour_memory must be a bool, got %T", ErrInvalidOption, value)
			}
			opts = append(opts, WithNeighbourMemory(enabled))
		default:
			return nil, fmt.Errorf("%w: unrecognized option %q", ErrInvalidOption, key)
		}
	}
	return opts, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
