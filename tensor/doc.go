// Package tensor collects the small set of dense 2-D operations the Graph LSTM
// needs on top of gonum's mat package.
//
// Every tensor handled by this module is a *mat.Dense of shape [batch, features].
// Per-node tensors are kept in slices positioned by node index; the helpers in
// this package never mutate their arguments and always return fresh matrices.
//
// # Initializers
//
// Weight and bias variables are filled by an Initializer:
//
//	w, err := tensor.NewGlorotUniform(7).Initialize(4, 3)
//	b, err := tensor.ZerosInitializer{}.Initialize(1, 3)
//	c, err := tensor.Constant(0, -1, 2, 1).Initialize(2, 2)
//
// # Snapshots
//
// Matrix is the JSON form of a dense matrix used by weight snapshots and
// checkpoints:
//
//	snap := tensor.Snapshot(m)
//	data, _ := json.Marshal(snap)
package tensor
