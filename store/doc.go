// Package store persists the recurrent state of a Graph LSTM net between runs.
//
// A Checkpoint holds the (memory, hidden) pair of every node after a given
// step, keyed by node name and index, and optionally a snapshot of the weight
// store. Backends implement CheckpointStore:
//
//   - store/memory: in-process map, for tests and short runs
//   - store/file: one JSON file per checkpoint in a directory
//   - store/redis: Redis keys with an optional TTL and a per-run index set
//   - store/postgres: a table with JSONB columns, pgx connection pool
//   - store/sqlite: a table in a local SQLite file
//
// Example:
//
//	cs := memory.NewMemoryCheckpointStore()
//	listener := graph.NewCheckpointListener(cs, g, graph.CheckpointConfig{Every: 10})
//	res, err := rnn.Unroll(ctx, net, seq, nil, rnn.WithStepListener(listener))
//
//	state, cp, err := graph.RestoreState(ctx, cs, listener.LastID(), g)
package store
