package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/weights"
)

// NodeRecord is one node of an annotated graph.
type NodeRecord struct {
	Name       string
	Index      int
	Confidence float64
	Cell       cell.Cell
}

// AnnotatedGraph is a topology whose nodes carry an index, a confidence and a
// cell. Records are stored by index; names map to positions separately.
type AnnotatedGraph struct {
	nodes      []NodeRecord
	ids        map[string]int
	neighbours [][]int
	store      weights.Store
}

// Node returns the record of name.
func (g *AnnotatedGraph) Node(name string) (NodeRecord, error) {
	id, ok := g.ids[name]
	if !ok {
		return NodeRecord{}, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return g.nodes[id], nil
}

// Nodes returns all records in index order.
func (g *AnnotatedGraph) Nodes() []NodeRecord {
	return slices.Clone(g.nodes)
}

// NodeCount returns the number of nodes.
func (g *AnnotatedGraph) NodeCount() int {
	return len(g.nodes)
}

// Names returns node names in index order.
func (g *AnnotatedGraph) Names() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.Name
	}
	return names
}

// Neighbours returns the names adjacent to name, ordered by index.
func (g *AnnotatedGraph) Neighbours(name string) ([]string, error) {
	id, ok := g.ids[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	names := make([]string, len(g.neighbours[id]))
	for i, n := range g.neighbours[id] {
		names[i] = g.nodes[n].Name
	}
	return names, nil
}

// SetCell replaces the cell of name. A nil cell leaves the node without one.
func (g *AnnotatedGraph) SetCell(name string, c cell.Cell) error {
	id, ok := g.ids[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	g.nodes[id].Cell = c
	return nil
}

// WeightStore returns the store shared by the graph's cells.
func (g *AnnotatedGraph) WeightStore() weights.Store {
	return g.store
}

// IsValid reports whether every node has a name, a finite confidence and a
// cell, and whether the indices are a bijection onto [0, N). Unless
// ignoreCellType is set, every cell must be a *cell.GraphLSTMCell.
func IsValid(g *AnnotatedGraph, ignoreCellType bool) bool {
	if g == nil || len(g.nodes) == 0 || len(g.ids) != len(g.nodes) || len(g.neighbours) != len(g.nodes) {
		return false
	}

	seen := make([]bool, len(g.nodes))
	for id, n := range g.nodes {
		if n.Name == "" || g.ids[n.Name] != id {
			return false
		}
		if n.Index < 0 || n.Index >= len(g.nodes) || seen[n.Index] {
			return false
		}
		seen[n.Index] = true

		if math.IsNaN(n.Confidence) || math.IsInf(n.Confidence, 0) {
			return false
		}
		if n.Cell == nil {
			return false
		}
		if _, ok := n.Cell.(*cell.GraphLSTMCell); !ok && !ignoreCellType {
			return false
		}

		for _, other := range g.neighbours[id] {
			if other < 0 || other >= len(g.nodes) || !slices.Contains(g.neighbours[other], id) {
				return false
			}
		}
	}
	return true
}
