package graph

import (
	"fmt"
)

// Edge is an undirected connection between two named nodes.
type Edge struct {
	From string
	To   string
}

// Topology is an undirected graph over node names. Nodes keep the order in
// which they were first seen and adjacency is always symmetric.
type Topology struct {
	nodes []string
	pos   map[string]int
	adj   map[string][]string
	edges []Edge
}

// NewTopology builds a topology from edges plus optional isolated nodes.
func NewTopology(edges []Edge, isolated ...string) (*Topology, error) {
	t := &Topology{
		pos: make(map[string]int),
		adj: make(map[string][]string),
	}
	for _, e := range edges {
		if err := t.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	for _, name := range isolated {
		if err := t.AddNode(name); err != nil {
			return nil, err
		}
	}
	if len(t.nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrInvalidTopology)
	}
	return t, nil
}

// AsTopology accepts a *Topology or anything ParseEdgeList understands.
func AsTopology(v any) (*Topology, error) {
	if t, ok := v.(*Topology); ok {
		if t == nil || len(t.nodes) == 0 {
			return nil, fmt.Errorf("%w: empty topology", ErrInvalidTopology)
		}
		return t, nil
	}
	edges, err := ParseEdgeList(v)
	if err != nil {
		return nil, err
	}
	return NewTopology(edges)
}

// ParseEdgeList converts []Edge, [][2]string or [][]string into edges.
// Everything else, empty lists, pairs that are not pairs, empty names and
// self loops fail with ErrInvalidTopology.
func ParseEdgeList(v any) ([]Edge, error) {
	var edges []Edge
	switch list := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil edge list", ErrInvalidTopology)
	case []Edge:
		edges = append(edges, list...)
	case [][2]string:
		for _, p := range list {
			edges = append(edges, Edge{From: p[0], To: p[1]})
		}
	case [][]string:
		for i, p := range list {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: edge %d has %d endpoints", ErrInvalidTopology, i, len(p))
			}
			edges = append(edges, Edge{From: p[0], To: p[1]})
		}
	default:
		return nil, fmt.Errorf("%w: unsupported edge list type %T", ErrInvalidTopology, v)
	}

	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: empty edge list", ErrInvalidTopology)
	}
	for i, e := range edges {
		if err := checkEdge(e); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return edges, nil
}

func checkEdge(e Edge) error {
	if e.From == "" || e.To == "" {
		return fmt.Errorf("%w: empty node name in edge (%q, %q)", ErrInvalidTopology, e.From, e.To)
	}
	if e.From == e.To {
		return fmt.Errorf("%w: self loop on %q", ErrInvalidTopology, e.From)
	}
	return nil
}

// AddNode adds a node without edges. Adding an existing node is a no-op.
func (t *Topology) AddNode(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty node name", ErrInvalidTopology)
	}
	if _, ok := t.pos[name]; ok {
		return nil
	}
	t.pos[name] = len(t.nodes)
	t.nodes = append(t.nodes, name)
	return nil
}

// AddEdge connects two nodes, adding them if needed. Repeated edges are ignored.
func (t *Topology) AddEdge(from, to string) error {
	e := Edge{From: from, To: to}
	if err := checkEdge(e); err != nil {
		return err
	}
	_ = t.AddNode(from)
	_ = t.AddNode(to)
	for _, n := range t.adj[from] {
		if n == to {
			return nil
		}
	}
	t.adj[from] = append(t.adj[from], to)
	t.adj[to] = append(t.adj[to], from)
	t.edges = append(t.edges, e)
	return nil
}

// Nodes returns node names in first-seen order.
func (t *Topology) Nodes() []string {
	return append([]string(nil), t.nodes...)
}

// Has reports whether name is a node.
func (t *Topology) Has(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Neighbours returns the names adjacent to name in first-seen order.
func (t *Topology) Neighbours(name string) []string {
	return append([]string(nil), t.adj[name]...)
}

// Edges returns every edge once, in insertion order.
func (t *Topology) Edges() []Edge {
	return append([]Edge(nil), t.edges...)
}

// NodeCount returns the number of nodes.
func (t *Topology) NodeCount() int {
	return len(t.nodes)
}
