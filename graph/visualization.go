package graph

import (
	"fmt"
	"strings"
)

// Exporter renders an annotated graph as text diagrams
type Exporter struct {
	graph *AnnotatedGraph
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter(g *AnnotatedGraph) *Exporter {
	return &Exporter{graph: g}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// edges returns every undirected edge once as (low index, high index) positions.
func (ge *Exporter) edges() [][2]int {
	var out [][2]int
	for id, neighbours := range ge.graph.neighbours {
		for _, other := range neighbours {
			if id < other {
				out = append(out, [2]int{id, other})
			}
		}
	}
	return out
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Nodes are labelled with their name and index; node ids are n<index>.
func (ge *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	for _, n := range ge.graph.nodes {
		sb.WriteString(fmt.Sprintf("    n%d[\"%s (%d)\"]\n", n.Index, n.Name, n.Index))
	}
	for _, e := range ge.edges() {
		a, b := ge.graph.nodes[e[0]], ge.graph.nodes[e[1]]
		sb.WriteString(fmt.Sprintf("    n%d --- n%d\n", a.Index, b.Index))
	}

	// Nodes with lowered confidence stand out.
	for _, n := range ge.graph.nodes {
		if n.Confidence < 0 {
			sb.WriteString(fmt.Sprintf("    style n%d fill:#FFB6C1\n", n.Index))
		}
	}
	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the graph
func (ge *Exporter) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("graph G {\n")
	sb.WriteString("    node [shape=ellipse];\n")

	for _, n := range ge.graph.nodes {
		sb.WriteString(fmt.Sprintf("    %q [label=\"%s\\n%d\"];\n", n.Name, n.Name, n.Index))
	}
	for _, e := range ge.edges() {
		sb.WriteString(fmt.Sprintf("    %q -- %q;\n", ge.graph.nodes[e[0]].Name, ge.graph.nodes[e[1]].Name))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII draws a spanning tree of every connected component, starting at
// the lowest index. Edges back to already drawn nodes are marked (cycle).
func (ge *Exporter) DrawASCII() string {
	var sb strings.Builder
	visited := make([]bool, len(ge.graph.nodes))

	sb.WriteString("Graph LSTM Topology:\n")
	for id, n := range ge.graph.nodes {
		if visited[id] {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s [%d]\n", n.Name, n.Index))
		visited[id] = true
		ge.drawASCIIChildren(id, -1, "", visited, &sb)
	}
	return sb.String()
}

func (ge *Exporter) drawASCIIChildren(id, parent int, prefix string, visited []bool, sb *strings.Builder) {
	children := make([]int, 0, len(ge.graph.neighbours[id]))
	for _, other := range ge.graph.neighbours[id] {
		if other != parent {
			children = append(children, other)
		}
	}

	for i, child := range children {
		connector := "├──"
		nextPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└──"
			nextPrefix = prefix + "    "
		}

		n := ge.graph.nodes[child]
		if visited[child] {
			sb.WriteString(fmt.Sprintf("%s%s %s [%d] (cycle)\n", prefix, connector, n.Name, n.Index))
			continue
		}
		visited[child] = true
		sb.WriteString(fmt.Sprintf("%s%s %s [%d]\n", prefix, connector, n.Name, n.Index))
		ge.drawASCIIChildren(child, id, nextPrefix, visited, sb)
	}
}
