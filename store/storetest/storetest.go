// Package storetest checks that a store.CheckpointStore behaves like the
// in-memory reference store.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/smallnest/graphlstm/store"
	"github.com/smallnest/graphlstm/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewCheckpoint returns a two-node checkpoint with recognizable values.
func NewCheckpoint(id, runID string, step int) *store.Checkpoint {
	m := tensor.Matrix{Rows: 1, Cols: 2, Data: []float64{float64(step), -0.25}}
	h := tensor.Matrix{Rows: 1, Cols: 2, Data: []float64{0.5, float64(step) / 3}}
	return &store.Checkpoint{
		ID:    id,
		RunID: runID,
		Step:  step,
		States: []store.NodeState{
			{Node: "wrist", Index: 0, Memory: m, Hidden: h},
			{Node: "t0", Index: 1, Memory: h, Hidden: m},
		},
		Metadata:  map[string]any{"experiment": "storetest"},
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Version:   step + 1,
	}
}

// Run exercises newStore against the CheckpointStore contract. newStore must
// return an empty store on every call.
func Run(t *testing.T, newStore func(t *testing.T) store.CheckpointStore) {
	t.Run("save and load", func(t *testing.T) {
		ctx := context.Background()
		cs := newStore(t)

		cp := NewCheckpoint("cp-1", "run-1", 4)
		cp.Weights = map[string]tensor.Matrix{
			"wrist/W_xi": {Rows: 2, Cols: 1, Data: []float64{0.125, -3}},
		}
		require.NoError(t, cs.Save(ctx, cp))

		loaded, err := cs.Load(ctx, "cp-1")
		require.NoError(t, err)
		assert.Equal(t, cp.ID, loaded.ID)
		assert.Equal(t, cp.RunID, loaded.RunID)
		assert.Equal(t, cp.Step, loaded.Step)
		assert.Equal(t, cp.Version, loaded.Version)
		assert.Equal(t, cp.States, loaded.States)
		assert.Equal(t, cp.Weights, loaded.Weights)
		assert.Equal(t, "storetest", loaded.Metadata["experiment"])
		assert.WithinDuration(t, cp.Timestamp, loaded.Timestamp, time.Millisecond)
	})

	t.Run("save replaces", func(t *testing.T) {
		ctx := context.Background()
		cs := newStore(t)

		require.NoError(t, cs.Save(ctx, NewCheckpoint("cp-1", "run-1", 1)))
		require.NoError(t, cs.Save(ctx, NewCheckpoint("cp-1", "run-1", 7)))

		loaded, err := cs.Load(ctx, "cp-1")
		require.NoError(t, err)
		assert.Equal(t, 7, loaded.Step)

		list, err := cs.List(ctx, "run-1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := newStore(t).Load(context.Background(), "nope")
		assert.ErrorIs(t, err, store.ErrCheckpointNotFound)
	})

	t.Run("list by run ordered by step", func(t *testing.T) {
		ctx := context.Background()
		cs := newStore(t)

		for _, step := range []int{5, 1, 3} {
			require.NoError(t, cs.Save(ctx, NewCheckpoint(fmt.Sprintf("a-%d", step), "run-a", step)))
		}
		require.NoError(t, cs.Save(ctx, NewCheckpoint("b-2", "run-b", 2)))

		list, err := cs.List(ctx, "run-a")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []int{1, 3, 5}, []int{list[0].Step, list[1].Step, list[2].Step})

		list, err = cs.List(ctx, "run-c")
		require.NoError(t, err)
		assert.Empty(t, list)

		latest, err := store.Latest(ctx, cs, "run-a")
		require.NoError(t, err)
		assert.Equal(t, "a-5", latest.ID)

		_, err = store.Latest(ctx, cs, "run-c")
		assert.ErrorIs(t, err, store.ErrCheckpointNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		cs := newStore(t)

		require.NoError(t, cs.Save(ctx, NewCheckpoint("cp-1", "run-1", 1)))
		require.NoError(t, cs.Save(ctx, NewCheckpoint("cp-2", "run-1", 2)))
		require.NoError(t, cs.Delete(ctx, "cp-1"))

		_, err := cs.Load(ctx, "cp-1")
		assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

		list, err := cs.List(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "cp-2", list[0].ID)

		assert.ErrorIs(t, cs.Delete(ctx, "cp-1"), store.ErrCheckpointNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		ctx := context.Background()
		cs := newStore(t)

		require.NoError(t, cs.Save(ctx, NewCheckpoint("a-1", "run-a", 1)))
		require.NoError(t, cs.Save(ctx, NewCheckpoint("a-2", "run-a", 2)))
		require.NoError(t, cs.Save(ctx, NewCheckpoint("b-1", "run-b", 1)))

		require.NoError(t, cs.Clear(ctx, "run-a"))
		require.NoError(t, cs.Clear(ctx, "run-never"))

		list, err := cs.List(ctx, "run-a")
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = cs.Load(ctx, "b-1")
		assert.NoError(t, err)
	})
}
