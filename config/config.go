// Package config reads Graph LSTM net descriptions from HCL files.
//
// A description names the topology, the cell width and the settings the
// builder and the net accept:
//
//	num_units = 3
//	edges     = [["wrist", "t0"], ["t0", "t1"], ["wrist", "i0"]]
//	nodes     = ["palm"]
//
//	confidence = {
//	  t1 = -0.5
//	}
//	index = { wrist = 0, t0 = 1, t1 = 2, i0 = 3, palm = 4 }
//
//	shared_weights   = ["neighbour_connections"]
//	forget_bias      = 1.0
//	activation       = "tanh"
//	aggregation      = "sum"
//	neighbour_memory = false
//	parallel         = true
//
// Unknown attributes, non-numeric confidences and a non-positive num_units
// are rejected with graph.ErrInvalidConfig.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/graph"
	"github.com/smallnest/graphlstm/log"
	"github.com/zclconf/go-cty/cty"
)

// NetConfig is a decoded net description.
type NetConfig struct {
	NumUnits      int
	Edges         []graph.Edge
	Nodes         []string
	Confidence    map[string]float64
	Index         map[string]int
	SharedWeights cell.WeightKind
	CellSettings  map[string]any
	Parallel      bool
}

// hclNetFile is the file layout for decoding.
type hclNetFile struct {
	NumUnits        int            `hcl:"num_units"`
	Edges           [][]string     `hcl:"edges,optional"`
	Nodes           []string       `hcl:"nodes,optional"`
	Confidence      cty.Value      `hcl:"confidence,optional"`
	Index           map[string]int `hcl:"index,optional"`
	SharedWeights   []string       `hcl:"shared_weights,optional"`
	ForgetBias      *float64       `hcl:"forget_bias,optional"`
	Activation      *string        `hcl:"activation,optional"`
	Aggregation     *string        `hcl:"aggregation,optional"`
	NeighbourMemory *bool          `hcl:"neighbour_memory,optional"`
	Parallel        *bool          `hcl:"parallel,optional"`
}

// Load reads and decodes the HCL file at path.
func Load(path string) (*NetConfig, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read net config %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*NetConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", graph.ErrInvalidConfig, filename, diags)
	}

	var raw hclNetFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", graph.ErrInvalidConfig, filename, diags)
	}

	cfg, err := raw.netConfig()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	log.GetDefaultLogger().Debug("loaded net config %s: %d edges, %d isolated nodes, %d units",
		filename, len(cfg.Edges), len(cfg.Nodes), cfg.NumUnits)
	return cfg, nil
}

func (raw *hclNetFile) netConfig() (*NetConfig, error) {
	if raw.NumUnits < 1 {
		return nil, fmt.Errorf("%w: num_units must be a positive integer, got %d", graph.ErrInvalidConfig, raw.NumUnits)
	}

	cfg := &NetConfig{
		NumUnits:     raw.NumUnits,
		Nodes:        raw.Nodes,
		Index:        raw.Index,
		CellSettings: make(map[string]any),
	}

	for i, pair := range raw.Edges {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: edge %d has %d endpoints", graph.ErrInvalidTopology, i, len(pair))
		}
		cfg.Edges = append(cfg.Edges, graph.Edge{From: pair[0], To: pair[1]})
	}

	confidence, err := decodeConfidence(raw.Confidence)
	if err != nil {
		return nil, err
	}
	cfg.Confidence = confidence

	for _, name := range raw.SharedWeights {
		if name == "neighbour_connections" {
			cfg.SharedWeights |= graph.SharedNeighbourConnections
			continue
		}
		kind, err := cell.ParseWeightKinds(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", graph.ErrInvalidConfig, err)
		}
		cfg.SharedWeights |= kind
	}

	if raw.ForgetBias != nil {
		cfg.CellSettings["forget_bias"] = *raw.ForgetBias
	}
	if raw.Activation != nil {
		cfg.CellSettings["activation"] = *raw.Activation
	}
	if raw.Aggregation != nil {
		cfg.CellSettings["aggregation"] = *raw.Aggregation
	}
	if raw.NeighbourMemory != nil {
		cfg.CellSettings["neighbour_memory"] = *raw.NeighbourMemory
	}
	if raw.Parallel != nil {
		cfg.Parallel = *raw.Parallel
	}
	return cfg, nil
}

// decodeConfidence accepts an object or map whose values are all numbers.
func decodeConfidence(v cty.Value) (map[string]float64, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("%w: confidence must be a map of node names to numbers, got %s", graph.ErrInvalidConfig, ty.FriendlyName())
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%w: confidence contains unknown values", graph.ErrInvalidConfig)
	}

	out := make(map[string]float64, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		key, val := it.Element()
		name := key.AsString()
		if val.IsNull() || !val.Type().Equals(cty.Number) {
			return nil, fmt.Errorf("%w: confidence of %q must be a number, got %s", graph.ErrInvalidConfig, name, val.Type().FriendlyName())
		}
		f, _ := val.AsBigFloat().Float64()
		out[name] = f
	}
	return out, nil
}

// Topology returns the described topology.
func (c *NetConfig) Topology() (*graph.Topology, error) {
	return graph.NewTopology(c.Edges, c.Nodes...)
}

// BuildOptions returns the builder options the description implies.
func (c *NetConfig) BuildOptions() []graph.BuildOption {
	opts := []graph.BuildOption{
		graph.WithSharedWeights(c.SharedWeights),
		graph.WithCellSettings(c.CellSettings),
	}
	if c.Confidence != nil {
		opts = append(opts, graph.WithConfidence(c.Confidence))
	}
	if c.Index != nil {
		opts = append(opts, graph.WithIndex(c.Index))
	}
	return opts
}

// Build builds the annotated graph. opts are applied after the ones from
// the description.
func (c *NetConfig) Build(opts ...graph.BuildOption) (*graph.AnnotatedGraph, error) {
	topo, err := c.Topology()
	if err != nil {
		return nil, err
	}
	return graph.Build(topo, c.NumUnits, append(c.BuildOptions(), opts...)...)
}

// NetOptions returns the net options the description implies.
func (c *NetConfig) NetOptions() []graph.NetOption {
	return []graph.NetOption{graph.WithParallel(c.Parallel)}
}
