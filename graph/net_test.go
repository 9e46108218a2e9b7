package graph

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/rnn"
	"github.com/smallnest/graphlstm/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func onesInputs(nodes, batch, features int) []*mat.Dense {
	inputs := make([]*mat.Dense, nodes)
	for i := range inputs {
		inputs[i] = tensor.Ones(batch, features)
	}
	return inputs
}

func randomSequence(rng *rand.Rand, steps, batch, features int) rnn.Sequence {
	seq := make(rnn.Sequence, steps)
	for t := range seq {
		data := make([]float64, batch*features)
		for i := range data {
			data[i] = rng.Float64()
		}
		seq[t] = []*mat.Dense{mat.NewDense(batch, features, data)}
	}
	return seq
}

func uninodalNet(t *testing.T, c cell.Cell) (*Net, *AnnotatedGraph) {
	t.Helper()
	topo, err := NewTopology(nil, "node0")
	require.NoError(t, err)
	g, err := Build(topo, 1, WithConfidence(map[string]float64{"node0": 0}))
	require.NoError(t, err)
	if c != nil {
		require.NoError(t, g.SetCell("node0", c))
	}
	net, err := NewNet(g)
	require.NoError(t, err)
	return net, g
}

// constantCell ignores its input and always returns hidden as output and
// (memory, hidden) as state.
func constantCell(units int, memory, hidden *mat.Dense) cell.Func {
	return cell.Func{Units: units, Fn: func(*mat.Dense, cell.State, []cell.State) (*mat.Dense, cell.State, error) {
		return hidden, cell.State{Memory: memory, Hidden: hidden}, nil
	}}
}

// returnCell returns the negated input and the state it was given,
// optionally increased by one.
func returnCell(units int, addOne bool) cell.Func {
	return cell.Func{Units: units, Fn: func(input *mat.Dense, own cell.State, _ []cell.State) (*mat.Dense, cell.State, error) {
		if addOne {
			own = cell.State{Memory: tensor.AddScalar(own.Memory, 1), Hidden: tensor.AddScalar(own.Hidden, 1)}
		}
		return tensor.Neg(input), own, nil
	}}
}

func TestNet_UninodalConstantCell(t *testing.T) {
	memory := tensor.MustFromRows([][]float64{{2}})
	hidden := tensor.MustFromRows([][]float64{{3}})
	net, _ := uninodalNet(t, constantCell(1, memory, hidden))
	ctx := context.Background()

	t.Run("one step", func(t *testing.T) {
		res, err := rnn.Unroll(ctx, net, rnn.Sequence{{tensor.MustFromRows([][]float64{{6, 5, 4, 3}})}}, nil)
		require.NoError(t, err)
		require.Len(t, res.Outputs, 1)
		assert.True(t, tensor.Equal(hidden, res.Outputs[0][0]))
		assert.True(t, tensor.Equal(memory, res.State[0].Memory))
		assert.True(t, tensor.Equal(hidden, res.State[0].Hidden))
	})

	t.Run("1000 steps", func(t *testing.T) {
		seq := randomSequence(rand.New(rand.NewSource(1)), 1000, 1, 1)
		res, err := rnn.Unroll(ctx, net, seq, nil)
		require.NoError(t, err)
		require.Len(t, res.Outputs, 1000)
		for step, outputs := range res.Outputs {
			require.True(t, tensor.Equal(hidden, outputs[0]), "step %d", step)
		}
		assert.True(t, tensor.Equal(memory, res.State[0].Memory))
	})

	t.Run("batch of three", func(t *testing.T) {
		input := tensor.MustFromRows([][]float64{{4}, {17}, {-9}})
		res, err := rnn.Unroll(ctx, net, rnn.Sequence{{input}}, nil)
		require.NoError(t, err)
		assert.True(t, tensor.Equal(hidden, res.Outputs[0][0]))
		assert.True(t, tensor.Equal(memory, res.State[0].Memory))
	})
}

func TestNet_UninodalConstantBatchCell(t *testing.T) {
	memory := tensor.MustFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	hidden := tensor.MustFromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})
	net, _ := uninodalNet(t, constantCell(2, memory, hidden))

	seq := randomSequence(rand.New(rand.NewSource(2)), 4, 3, 5)
	res, err := rnn.Unroll(context.Background(), net, seq, nil)
	require.NoError(t, err)

	for _, outputs := range res.Outputs {
		assert.True(t, tensor.Equal(hidden, outputs[0]))
	}
	assert.True(t, tensor.Equal(memory, res.State[0].Memory))
	assert.True(t, tensor.Equal(hidden, res.State[0].Hidden))
}

func TestNet_UninodalReturnCell(t *testing.T) {
	net, _ := uninodalNet(t, returnCell(4, false))
	ctx := context.Background()

	t.Run("one step", func(t *testing.T) {
		res, err := rnn.Unroll(ctx, net, rnn.Sequence{{tensor.MustFromRows([][]float64{{6, 5, 4, 3}})}}, nil)
		require.NoError(t, err)
		assert.True(t, tensor.Equal(tensor.MustFromRows([][]float64{{-6, -5, -4, -3}}), res.Outputs[0][0]))
		assert.True(t, tensor.Equal(tensor.Zeros(1, 4), res.State[0].Memory))
		assert.True(t, tensor.Equal(tensor.Zeros(1, 4), res.State[0].Hidden))
	})

	for _, batch := range []int{1, 3} {
		seq := randomSequence(rand.New(rand.NewSource(int64(batch))), 1000, batch, 4)
		res, err := rnn.Unroll(ctx, net, seq, nil)
		require.NoError(t, err)
		require.Len(t, res.Outputs, 1000)

		for step := range seq {
			require.True(t, tensor.Equal(tensor.Neg(seq[step][0]), res.Outputs[step][0]), "batch %d step %d", batch, step)
		}
		assert.True(t, tensor.Equal(tensor.Zeros(batch, 4), res.State[0].Memory))
		assert.True(t, tensor.Equal(tensor.Zeros(batch, 4), res.State[0].Hidden))
	}
}

func TestNet_UninodalCountingCell(t *testing.T) {
	net, _ := uninodalNet(t, returnCell(3, true))

	seq := randomSequence(rand.New(rand.NewSource(5)), 5, 2, 3)
	res, err := rnn.Unroll(context.Background(), net, seq, nil)
	require.NoError(t, err)

	for step := range seq {
		assert.True(t, tensor.Equal(tensor.Neg(seq[step][0]), res.Outputs[step][0]))
	}
	assert.True(t, tensor.Equal(tensor.Fill(2, 3, 5), res.State[0].Memory))
	assert.True(t, tensor.Equal(tensor.Fill(2, 3, 5), res.State[0].Hidden))
}

func TestNet_UninodalIndexOutOfRange(t *testing.T) {
	net, g := uninodalNet(t, returnCell(1, false))
	g.nodes[0].Index = 1

	_, _, err := net.Call(context.Background(), onesInputs(1, 1, 1), []cell.State{cell.ZeroState(1, 1)})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = net.ZeroState(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNet_TupleLength(t *testing.T) {
	g, err := Build(testEdges, 2)
	require.NoError(t, err)
	net, err := NewNet(g)
	require.NoError(t, err)

	state, err := net.ZeroState(1)
	require.NoError(t, err)

	_, _, err = net.Call(context.Background(), onesInputs(4, 1, 2), state)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, _, err = net.Call(context.Background(), onesInputs(5, 1, 2), state[:3])
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	longer := append(state, state...)
	_, _, err = net.Call(context.Background(), onesInputs(9, 1, 2), longer)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, _, err = net.Call(context.Background(), onesInputs(5, 1, 2), longer)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNet_CellLookup(t *testing.T) {
	g, err := Build(testEdges, 2)
	require.NoError(t, err)
	net, err := NewNet(g)
	require.NoError(t, err)

	c, err := net.Cell("wrist")
	require.NoError(t, err)
	assert.IsType(t, &cell.GraphLSTMCell{}, c)

	_, err = net.Cell("elbow")
	assert.ErrorIs(t, err, ErrUnknownNode)

	require.NoError(t, g.SetCell("wrist", nil))
	_, err = net.Cell("wrist")
	assert.ErrorIs(t, err, ErrMissingCell)

	_, err = net.ZeroState(1)
	assert.ErrorIs(t, err, ErrMissingCell)

	state := make([]cell.State, 5)
	for i := range state {
		state[i] = cell.ZeroState(1, 2)
	}
	_, _, err = net.Call(context.Background(), onesInputs(5, 1, 2), state)
	assert.ErrorIs(t, err, ErrMissingCell)
}

func TestNet_Sizes(t *testing.T) {
	g, err := Build(testEdges, 3)
	require.NoError(t, err)
	net, err := NewNet(g)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 3, 3, 3}, net.StateSize())
	assert.Equal(t, []int{3, 3, 3, 3, 3}, net.OutputSize())
	assert.Same(t, g, net.Graph())

	state, err := net.ZeroState(4)
	require.NoError(t, err)
	require.Len(t, state, 5)
	for _, s := range state {
		r, c := s.Hidden.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 3, c)
	}

	_, err = NewNet(nil)
	assert.ErrorIs(t, err, ErrInvalidTopology)
}

func TestNet_NeighbourStatesComeFromPreviousStep(t *testing.T) {
	g, err := Build([][2]string{{"a", "b"}, {"b", "c"}}, 1)
	require.NoError(t, err)

	var mu sync.Mutex
	received := make(map[string][]float64)
	for _, name := range g.Names() {
		name := name
		require.NoError(t, g.SetCell(name, cell.Func{Units: 1, Fn: func(input *mat.Dense, own cell.State, neighbours []cell.State) (*mat.Dense, cell.State, error) {
			var got []float64
			for _, n := range neighbours {
				got = append(got, n.Hidden.At(0, 0))
			}
			mu.Lock()
			received[name] = got
			mu.Unlock()

			next := tensor.AddScalar(own.Hidden, 10)
			return next, cell.State{Memory: own.Memory, Hidden: next}, nil
		}}))
	}

	net, err := NewNet(g)
	require.NoError(t, err)

	state := []cell.State{
		{Memory: tensor.Zeros(1, 1), Hidden: tensor.Fill(1, 1, 1)},
		{Memory: tensor.Zeros(1, 1), Hidden: tensor.Fill(1, 1, 2)},
		{Memory: tensor.Zeros(1, 1), Hidden: tensor.Fill(1, 1, 3)},
	}
	_, next, err := net.Call(context.Background(), onesInputs(3, 1, 1), state)
	require.NoError(t, err)

	assert.Equal(t, []float64{2}, received["a"])
	assert.Equal(t, []float64{1, 3}, received["b"], "b sees the incoming states of a and c, not their updates")
	assert.Equal(t, []float64{2}, received["c"])
	assert.Equal(t, []float64{11, 12, 13}, []float64{next[0].Hidden.At(0, 0), next[1].Hidden.At(0, 0), next[2].Hidden.At(0, 0)})
}

func TestNet_ParallelMatchesSequential(t *testing.T) {
	build := func() *AnnotatedGraph {
		g, err := Build(testEdges, 4,
			WithCellOptions(cell.WithInitializer(tensor.NewGlorotUniform(7))),
			WithConfidence(map[string]float64{"thumb_2": -1}))
		require.NoError(t, err)
		return g
	}

	sequential, err := NewNet(build())
	require.NoError(t, err)
	parallel, err := NewNet(build(), WithParallel(true))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	seq := make(rnn.Sequence, 6)
	for step := range seq {
		seq[step] = make([]*mat.Dense, 5)
		for k := range seq[step] {
			data := make([]float64, 2*3)
			for i := range data {
				data[i] = rng.NormFloat64()
			}
			seq[step][k] = mat.NewDense(2, 3, data)
		}
	}

	a, err := rnn.Unroll(context.Background(), sequential, seq, nil)
	require.NoError(t, err)
	b, err := rnn.Unroll(context.Background(), parallel, seq, nil)
	require.NoError(t, err)

	for step := range seq {
		for k := range seq[step] {
			assert.True(t, tensor.Equal(a.Outputs[step][k], b.Outputs[step][k]), "step %d node %d", step, k)
		}
	}
	for k := range a.State {
		assert.True(t, tensor.Equal(a.State[k].Memory, b.State[k].Memory))
	}
}

func TestNet_ParallelPanicIsReturned(t *testing.T) {
	g, err := Build(testEdges, 1)
	require.NoError(t, err)

	calls := 0
	require.NoError(t, g.SetCell("thumb_2", cell.Func{Units: 1, Fn: func(input *mat.Dense, own cell.State, _ []cell.State) (*mat.Dense, cell.State, error) {
		calls++
		if calls > 1 {
			panic("cell exploded")
		}
		return input, own, nil
	}}))

	net, err := NewNet(g, WithParallel(true))
	require.NoError(t, err)
	state, err := net.ZeroState(1)
	require.NoError(t, err)

	_, state, err = net.Call(context.Background(), onesInputs(5, 1, 1), state)
	require.NoError(t, err)

	_, _, err = net.Call(context.Background(), onesInputs(5, 1, 1), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in node")
	assert.Contains(t, err.Error(), "cell exploded")
}

func TestNet_CellErrorAndListeners(t *testing.T) {
	g, err := Build(testEdges, 1)
	require.NoError(t, err)

	boom := errors.New("boom")
	require.NoError(t, g.SetCell("wrist", cell.Func{Units: 1, Fn: func(*mat.Dense, cell.State, []cell.State) (*mat.Dense, cell.State, error) {
		return nil, cell.State{}, boom
	}}))

	var mu sync.Mutex
	events := make(map[NodeEvent][]string)
	listener := NodeListenerFunc(func(_ context.Context, event NodeEvent, node NodeRecord, _ cell.State, err error) {
		mu.Lock()
		defer mu.Unlock()
		events[event] = append(events[event], node.Name)
		if event == NodeEventError {
			assert.ErrorIs(t, err, boom)
		}
	})

	net, err := NewNet(g, WithNodeListener(listener), WithNodeListener(NewLoggingListener(nil)))
	require.NoError(t, err)
	state, err := net.ZeroState(1)
	require.NoError(t, err)

	_, _, err = net.Call(context.Background(), onesInputs(5, 1, 1), state)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `node "wrist"`)

	// wrist has the highest index, so every other node ran first
	assert.Equal(t, []string{"index_1", "index_2", "thumb_1", "thumb_2", "wrist"}, events[NodeEventStart])
	assert.Equal(t, []string{"index_1", "index_2", "thumb_1", "thumb_2"}, events[NodeEventComplete])
	assert.Equal(t, []string{"wrist"}, events[NodeEventError])
}

func TestNet_ContextCancelled(t *testing.T) {
	g, err := Build(testEdges, 1)
	require.NoError(t, err)
	net, err := NewNet(g)
	require.NoError(t, err)
	state, err := net.ZeroState(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = net.Call(ctx, onesInputs(5, 1, 1), state)
	assert.ErrorIs(t, err, context.Canceled)
}
