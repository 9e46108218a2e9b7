package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
num_units = 3
edges     = [["wrist", "t0"], ["t0", "t1"], ["wrist", "i0"]]
nodes     = ["palm"]

confidence = {
  t1 = -0.5
}
index = { wrist = 0, t0 = 1, t1 = 2, i0 = 3, palm = 4 }

shared_weights   = ["neighbour_connections", "bias"]
forget_bias      = 0.5
activation       = "relu"
aggregation      = "max"
neighbour_memory = true
parallel         = true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig), "full.hcl")
	require.NoError(t, err)

	want := &NetConfig{
		NumUnits:      3,
		Edges:         []graph.Edge{{From: "wrist", To: "t0"}, {From: "t0", To: "t1"}, {From: "wrist", To: "i0"}},
		Nodes:         []string{"palm"},
		Confidence:    map[string]float64{"t1": -0.5},
		Index:         map[string]int{"wrist": 0, "t0": 1, "t1": 2, "i0": 3, "palm": 4},
		SharedWeights: cell.WeightNeighbour | cell.WeightBias,
		CellSettings: map[string]any{
			"forget_bias":      0.5,
			"activation":       "relu",
			"aggregation":      "max",
			"neighbour_memory": true,
		},
		Parallel: true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte(`
num_units = 1
edges = [["a", "b"]]
`), "min.hcl")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.NumUnits)
	assert.Nil(t, cfg.Confidence)
	assert.Nil(t, cfg.Index)
	assert.Empty(t, cfg.CellSettings)
	assert.Equal(t, cell.WeightNone, cfg.SharedWeights)
	assert.False(t, cfg.Parallel)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{"syntax", `num_units = `, graph.ErrInvalidConfig},
		{"missing num_units", `edges = [["a", "b"]]`, graph.ErrInvalidConfig},
		{"zero units", "num_units = 0\nedges = [[\"a\", \"b\"]]", graph.ErrInvalidConfig},
		{"fractional units", "num_units = 1.5\nedges = [[\"a\", \"b\"]]", graph.ErrInvalidConfig},
		{"unknown attribute", "num_units = 2\ndropout = 0.5", graph.ErrInvalidConfig},
		{"edge arity", "num_units = 2\nedges = [[\"a\", \"b\", \"c\"]]", graph.ErrInvalidTopology},
		{"string confidence", "num_units = 2\nconfidence = { a = \"low\" }", graph.ErrInvalidConfig},
		{"list confidence", "num_units = 2\nconfidence = [1, 2]", graph.ErrInvalidConfig},
		{"unknown weight kind", "num_units = 2\nshared_weights = [\"edges\"]", graph.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadAndBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.hcl")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	g, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"wrist", "t0", "t1", "i0", "palm"}, g.Names())
	assert.True(t, graph.IsValid(g, false))

	rec, err := g.Node("t1")
	require.NoError(t, err)
	assert.Equal(t, -0.5, rec.Confidence)
	c := rec.Cell.(*cell.GraphLSTMCell)
	assert.Equal(t, 0.5, c.ForgetBias())
	assert.Equal(t, "relu", c.ActivationName())

	palm, err := g.Neighbours("palm")
	require.NoError(t, err)
	assert.Empty(t, palm)

	net, err := graph.NewNet(g, cfg.NetOptions()...)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3, 3, 3}, net.StateSize())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuild_UnknownIndexNode(t *testing.T) {
	cfg, err := Parse([]byte("num_units = 2\nedges = [[\"a\", \"b\"]]\nindex = { a = 0, c = 1 }"), "idx.hcl")
	require.NoError(t, err)

	_, err = cfg.Build()
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
}
