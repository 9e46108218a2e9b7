// Package graph builds Graph LSTM networks over an undirected topology and
// runs them one timestep at a time.
//
// # Building
//
// Build turns an edge list or a Topology into an AnnotatedGraph. Every node
// gets a stable index (sorted node names unless WithIndex fixes it), a
// confidence (0 unless WithConfidence sets it) and its own cell:
//
//	g, err := graph.Build([][2]string{{"wrist", "thumb"}, {"wrist", "index"}}, 3,
//		graph.WithConfidence(map[string]float64{"thumb": -0.5}),
//		graph.WithSharedWeights(graph.SharedNeighbourConnections),
//	)
//
// Options are validated strictly; a typo in a cell setting fails the build
// with ErrInvalidConfig rather than being ignored.
//
// # Running
//
// Net is a recurrent unit over the whole graph. Inputs, outputs and states
// are tuples positioned by node index. Each node reads its neighbours' states
// from the incoming tuple, never from the step being computed:
//
//	net, err := graph.NewNet(g, graph.WithParallel(true))
//	state, _ := net.ZeroState(batch)
//	outputs, state, err := net.Call(ctx, inputs, state)
//
// Net satisfies rnn.Unit, so rnn.Unroll can drive it over a sequence, and
// CheckpointListener can persist its state while it does.
//
// # Inspecting
//
// Exporter renders the topology as Mermaid, DOT or an ASCII tree.
package graph
