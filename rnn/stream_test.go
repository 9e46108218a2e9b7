package rnn

import (
	"context"
	"testing"

	"github.com/smallnest/graphlstm/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStream(t *testing.T) {
	unit := &accumulator{units: 1}
	res := Stream(context.Background(), unit, Repeat([]*mat.Dense{tensor.Ones(1, 1)}, 5), nil, DefaultStreamConfig())
	defer res.Cancel()

	var steps []int
	for ev := range res.Steps {
		steps = append(steps, ev.Step)
		assert.Equal(t, float64(ev.Step+1), ev.Outputs[0].At(0, 0))
	}
	<-res.Done

	assert.Equal(t, []int{0, 1, 2, 3, 4}, steps)
	select {
	case final := <-res.Result:
		assert.Equal(t, 5.0, final.State[0].Memory.At(0, 0))
	default:
		t.Fatal("no result")
	}
	assert.Empty(t, res.Errors)
	assert.Zero(t, res.Dropped())
}

func TestStream_DropsWhenFull(t *testing.T) {
	unit := &accumulator{units: 1}
	res := Stream(context.Background(), unit, Repeat([]*mat.Dense{tensor.Ones(1, 1)}, 5), nil,
		StreamConfig{BufferSize: 1})
	defer res.Cancel()

	<-res.Done

	var steps []int
	for ev := range res.Steps {
		steps = append(steps, ev.Step)
	}
	assert.Equal(t, []int{0}, steps)
	assert.Equal(t, 4, res.Dropped())
}

func TestStream_Error(t *testing.T) {
	unit := &accumulator{units: 1, fail: 2}
	res := Stream(context.Background(), unit, Repeat([]*mat.Dense{tensor.Ones(1, 1)}, 5), nil, DefaultStreamConfig())
	defer res.Cancel()

	for range res.Steps {
	}
	<-res.Done

	select {
	case err := <-res.Errors:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 1")
	default:
		t.Fatal("no error")
	}
	assert.Empty(t, res.Result)
}

func TestStream_Cancel(t *testing.T) {
	unit := &accumulator{units: 1}
	res := Stream(context.Background(), unit, Repeat([]*mat.Dense{tensor.Ones(1, 1)}, 50), nil,
		StreamConfig{BufferSize: 0, Block: true})

	first := <-res.Steps
	assert.Equal(t, 0, first.Step)
	res.Cancel()

	for range res.Steps {
	}
	<-res.Done

	err := <-res.Errors
	assert.ErrorIs(t, err, context.Canceled)
}
