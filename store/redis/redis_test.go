package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/graphlstm/store"
	"github.com/smallnest/graphlstm/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts RedisOptions) (*RedisCheckpointStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	opts.Addr = mr.Addr()
	s := NewRedisCheckpointStore(opts)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisCheckpointStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.CheckpointStore {
		s, _ := newTestStore(t, RedisOptions{})
		return s
	})
}

func TestRedisCheckpointStore_Keys(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, RedisOptions{Prefix: "hands:"})

	require.NoError(t, s.Save(ctx, storetest.NewCheckpoint("cp-1", "run-1", 1)))

	assert.True(t, mr.Exists("hands:checkpoint:cp-1"))
	members, err := mr.SMembers("hands:run:run-1:checkpoints")
	require.NoError(t, err)
	assert.Equal(t, []string{"cp-1"}, members)

	require.NoError(t, s.Delete(ctx, "cp-1"))
	assert.False(t, mr.Exists("hands:checkpoint:cp-1"))
}

func TestRedisCheckpointStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, RedisOptions{TTL: time.Minute})

	require.NoError(t, s.Save(ctx, storetest.NewCheckpoint("cp-1", "run-1", 1)))
	assert.Equal(t, time.Minute, mr.TTL("graphlstm:checkpoint:cp-1"))
	assert.Equal(t, time.Minute, mr.TTL("graphlstm:run:run-1:checkpoints"))

	mr.FastForward(2 * time.Minute)

	_, err := s.Load(ctx, "cp-1")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)
}

func TestRedisCheckpointStore_ListSkipsExpired(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, RedisOptions{})

	require.NoError(t, s.Save(ctx, storetest.NewCheckpoint("cp-1", "run-1", 1)))
	require.NoError(t, s.Save(ctx, storetest.NewCheckpoint("cp-2", "run-1", 2)))
	mr.Del("graphlstm:checkpoint:cp-1")

	list, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cp-2", list[0].ID)
}

func TestRedisCheckpointStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, RedisOptions{})
	mr.Close()

	err := s.Save(ctx, storetest.NewCheckpoint("cp-1", "run-1", 1))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrCheckpointNotFound)

	_, err = s.Load(ctx, "cp-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrCheckpointNotFound)
}
