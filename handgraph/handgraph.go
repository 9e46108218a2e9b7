// Package handgraph provides hand-skeleton topologies for Graph LSTM nets.
package handgraph

import (
	"github.com/smallnest/graphlstm/graph"
)

// NumUnits is the per-node state width used for hand pose regression: one
// unit per coordinate of a joint.
const NumUnits = 3

// KickoffHand is a 20-node hand: the wrist, and the joints of the thumb (t0
// to t2) and of the index, middle, ring and pinky fingers (i0 to p3).
// Neighbouring finger roots are connected to each other.
var KickoffHand = []graph.Edge{
	{From: "t0", To: "wrist"},
	{From: "i0", To: "wrist"},
	{From: "m0", To: "wrist"},
	{From: "r0", To: "wrist"},
	{From: "p0", To: "wrist"},
	{From: "i0", To: "m0"},
	{From: "m0", To: "r0"},
	{From: "r0", To: "p0"},
	{From: "t0", To: "t1"},
	{From: "t1", To: "t2"},
	{From: "i0", To: "i1"},
	{From: "i1", To: "i2"},
	{From: "i2", To: "i3"},
	{From: "m0", To: "m1"},
	{From: "m1", To: "m2"},
	{From: "m2", To: "m3"},
	{From: "r0", To: "r1"},
	{From: "r1", To: "r2"},
	{From: "r2", To: "r3"},
	{From: "p0", To: "p1"},
	{From: "p1", To: "p2"},
	{From: "p2", To: "p3"},
}

// Hands2017Joints lists the 21 joints of the HANDS 2017 annotation in
// annotation order: the wrist, the five MCP joints, then PIP, DIP and TIP of
// each finger from thumb to pinky.
var Hands2017Joints = []string{
	"Wrist",
	"TMCP", "IMCP", "MMCP", "RMCP", "PMCP",
	"TPIP", "TDIP", "TTIP",
	"IPIP", "IDIP", "ITIP",
	"MPIP", "MDIP", "MTIP",
	"RPIP", "RDIP", "RTIP",
	"PPIP", "PDIP", "PTIP",
}

// Hands2017 connects the HANDS 2017 joints: the wrist to every MCP,
// neighbouring non-thumb MCPs to each other, and each finger as a chain.
var Hands2017 = []graph.Edge{
	{From: "Wrist", To: "TMCP"},
	{From: "Wrist", To: "IMCP"},
	{From: "Wrist", To: "MMCP"},
	{From: "Wrist", To: "RMCP"},
	{From: "Wrist", To: "PMCP"},
	{From: "IMCP", To: "MMCP"},
	{From: "MMCP", To: "RMCP"},
	{From: "RMCP", To: "PMCP"},
	{From: "TMCP", To: "TPIP"},
	{From: "TPIP", To: "TDIP"},
	{From: "TDIP", To: "TTIP"},
	{From: "IMCP", To: "IPIP"},
	{From: "IPIP", To: "IDIP"},
	{From: "IDIP", To: "ITIP"},
	{From: "MMCP", To: "MPIP"},
	{From: "MPIP", To: "MDIP"},
	{From: "MDIP", To: "MTIP"},
	{From: "RMCP", To: "RPIP"},
	{From: "RPIP", To: "RDIP"},
	{From: "RDIP", To: "RTIP"},
	{From: "PMCP", To: "PPIP"},
	{From: "PPIP", To: "PDIP"},
	{From: "PDIP", To: "PTIP"},
}

// Hands2017Index maps every joint to its position in the annotation, which
// is the order regression networks emit joints in.
func Hands2017Index() map[string]int {
	index := make(map[string]int, len(Hands2017Joints))
	for i, joint := range Hands2017Joints {
		index[joint] = i
	}
	return index
}

// BuildHands2017 builds the HANDS 2017 graph in annotation order with NumUnits
// units and shared neighbour connections. opts are applied after these
// defaults and may override them.
func BuildHands2017(opts ...graph.BuildOption) (*graph.AnnotatedGraph, error) {
	defaults := []graph.BuildOption{
		graph.WithIndex(Hands2017Index()),
		graph.WithSharedWeights(graph.SharedNeighbourConnections),
	}
	return graph.Build(Hands2017, NumUnits, append(defaults, opts...)...)
}
