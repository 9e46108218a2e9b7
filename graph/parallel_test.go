package graph

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachNode_Sequential(t *testing.T) {
	var order []int
	err := forEachNode(context.Background(), 5, false, func(_ context.Context, i int) error {
		order = append(order, i)
		if i == 2 {
			return errors.New("stop")
		}
		return nil
	})
	assert.EqualError(t, err, "stop")
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestForEachNode_Parallel(t *testing.T) {
	var calls atomic.Int32
	err := forEachNode(context.Background(), 8, true, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 3 || i == 6 {
			return fmt.Errorf("node %d failed", i)
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "parallel execution failed: node 3 failed", err.Error())
	assert.Equal(t, int32(8), calls.Load(), "every node runs even when one fails")

	require.NoError(t, forEachNode(context.Background(), 4, true, func(context.Context, int) error { return nil }))
}

func TestForEachNode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := forEachNode(ctx, 3, true, func(context.Context, int) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
