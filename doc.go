// Graph LSTM - Recurrent Networks over Arbitrary Graphs in Go
//
// graphlstm implements the Graph LSTM recurrent unit: an LSTM whose cells are
// the nodes of an undirected graph. Every node owns a cell that reads its own
// input and its own previous state, plus the previous-step states of its
// neighbours. The whole graph is then driven as a single recurrent unit over a
// sequence of per-node inputs.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/graphlstm
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/graphlstm/graph"
//		"github.com/smallnest/graphlstm/rnn"
//		"gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//		edges := [][2]string{{"wrist", "thumb"}, {"wrist", "index"}, {"thumb", "index"}}
//
//		g, _ := graph.Build(edges, 3)
//		net, _ := graph.NewNet(g)
//
//		step := make([]*mat.Dense, g.NodeCount())
//		for i := range step {
//			step[i] = mat.NewDense(1, 3, []float64{1, 2, 3})
//		}
//
//		res, _ := rnn.Unroll(context.Background(), net, rnn.Repeat(step, 5), nil)
//		fmt.Println(mat.Formatted(rnn.Last(res.Outputs)[0]))
//	}
//
// # Key Features
//
//   - Arbitrary undirected topologies built from edge lists
//   - Per-node confidence and forget bias, pluggable neighbour aggregation
//   - Weight sharing across nodes by connection kind
//   - Sequential or parallel evaluation of the nodes of a step
//   - Checkpointing of recurrent state and weights to memory, files, SQLite,
//     PostgreSQL or Redis
//   - Step streaming, node listeners and Mermaid, DOT and ASCII export
//   - HCL network definitions
//
// # Package Structure
//
// # Core Packages
//
// graph/
// Builds an AnnotatedGraph from a topology and runs it as a Net
//
//	g, err := graph.Build(edges, 3,
//		graph.WithConfidence(map[string]float64{"wrist": 0.9}),
//		graph.WithSharedWeights(graph.SharedNeighbourConnections),
//	)
//	net, err := graph.NewNet(g, graph.WithParallel(true))
//
// cell/
// The Graph LSTM cell and its options
//
// rnn/
// Unrolls any recurrent unit over a sequence, with step listeners and
// streaming
//
// linear/
// Weighted sums of inputs with created-or-reused weights
//
// weights/
// The named variable store shared by cells
//
// tensor/
// Matrix helpers, activations and initializers on top of gonum
//
// # Storage Packages
//
// store/
// Checkpoint model and the CheckpointStore interface, with memory, file,
// sqlite, postgres and redis backends
//
//	cs, _ := file.NewFileCheckpointStore("./checkpoints")
//	listener := graph.NewCheckpointListener(cs, g, graph.CheckpointConfig{Every: 10})
//	res, err := rnn.Unroll(ctx, net, seq, nil, rnn.WithStepListener(listener))
//
// # Supporting Packages
//
// config/
// Loads network definitions from HCL files
//
// handgraph/
// Hand skeleton topologies for pose regression
//
// log/
// Leveled logging with a golog adapter
//
// # Examples
//
//   - examples/hand_pose: HCL-defined hand graph with checkpoints and a
//     summary table
//   - examples/checkpointing/postgres: resuming an unroll from PostgreSQL
//   - examples/parallel_execution: streamed sequential and parallel runs
//
// # License
//
// This project is licensed under the MIT License - see the LICENSE file for details.
package graphlstm // import "github.com/smallnest/graphlstm"
