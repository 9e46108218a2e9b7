package tensor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, m.At(1, 0))

	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrShape)

	_, err = FromRows(nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestElementwise(t *testing.T) {
	a := MustFromRows([][]float64{{1, -2}, {3, 4}})
	b := MustFromRows([][]float64{{2, 2}, {0.5, -1}})

	assert.True(t, Equal(MustFromRows([][]float64{{2, -4}, {1.5, -4}}), Mul(a, b)))
	assert.True(t, Equal(MustFromRows([][]float64{{3, 0}, {3.5, 3}}), Sum(a, b)))
	assert.True(t, Equal(MustFromRows([][]float64{{2, -1}, {4, 5}}), AddScalar(a, 1)))
	assert.True(t, Equal(MustFromRows([][]float64{{-1, 2}, {-3, -4}}), Neg(a)))
	assert.True(t, Equal(a, Sum(a)), "sum of one matrix is a copy")

	relu := Apply(a, ReLUActivation)
	assert.True(t, Equal(MustFromRows([][]float64{{1, 0}, {3, 4}}), relu))
}

func TestSigmoidAndTanh(t *testing.T) {
	m := MustFromRows([][]float64{{0, 100, -100}})

	s := Sigmoid(m)
	assert.InDelta(t, 0.5, s.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, s.At(0, 1), 1e-12)
	assert.InDelta(t, 0.0, s.At(0, 2), 1e-12)

	th := Tanh(m)
	assert.InDelta(t, 0.0, th.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, th.At(0, 1), 1e-12)
}

func TestActivationByName(t *testing.T) {
	for _, name := range []string{"tanh", "sigmoid", "relu", "identity"} {
		act, err := ActivationByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, act)
	}

	id, _ := ActivationByName("identity")
	assert.Equal(t, -3.5, id(-3.5))

	_, err := ActivationByName("softsign")
	assert.ErrorContains(t, err, "softsign")
}

func TestAddRow(t *testing.T) {
	m := MustFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	out, err := AddRow(m, MustFromRows([][]float64{{10, 20}}))
	require.NoError(t, err)
	assert.True(t, Equal(MustFromRows([][]float64{{11, 22}, {13, 24}, {15, 26}}), out))
	assert.Equal(t, 1.0, m.At(0, 0), "input is not modified")

	_, err = AddRow(m, Ones(1, 3))
	assert.ErrorIs(t, err, ErrShape)
	_, err = AddRow(m, Ones(2, 2))
	assert.ErrorIs(t, err, ErrShape)
}

func TestSplitJoinNodes(t *testing.T) {
	x := MustFromRows([][]float64{
		{1, 2, 3, 4, 5, 6},
		{7, 8, 9, 10, 11, 12},
	})

	parts, err := SplitNodes(x, 3)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.True(t, Equal(MustFromRows([][]float64{{3, 4}, {9, 10}}), parts[1]))

	joined, err := JoinNodes(parts)
	require.NoError(t, err)
	assert.True(t, Equal(x, joined))

	_, err = SplitNodes(x, 4)
	assert.ErrorIs(t, err, ErrShape)
	_, err = SplitNodes(x, 0)
	assert.ErrorIs(t, err, ErrShape)

	_, err = JoinNodes([]*mat.Dense{Ones(2, 2), Ones(2, 3)})
	assert.ErrorIs(t, err, ErrShape)
	_, err = JoinNodes(nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestInitializers(t *testing.T) {
	t.Run("zeros and ones", func(t *testing.T) {
		z, err := ZerosInitializer{}.Initialize(2, 3)
		require.NoError(t, err)
		assert.True(t, Equal(Zeros(2, 3), z))

		o, err := OnesInitializer{}.Initialize(3, 1)
		require.NoError(t, err)
		assert.True(t, Equal(Fill(3, 1, 1), o))
	})

	t.Run("constant", func(t *testing.T) {
		m, err := Constant(0, -1, 2, 1).Initialize(2, 2)
		require.NoError(t, err)
		assert.True(t, Equal(MustFromRows([][]float64{{0, -1}, {2, 1}}), m))

		m, err = Constant(7).Initialize(1, 3)
		require.NoError(t, err)
		assert.True(t, Equal(Fill(1, 3, 7), m))

		_, err = Constant(1, 2, 3).Initialize(2, 2)
		assert.ErrorIs(t, err, ErrShape)
	})

	t.Run("glorot uniform stays within limit", func(t *testing.T) {
		m, err := NewGlorotUniform(1).Initialize(4, 2)
		require.NoError(t, err)
		limit := math.Sqrt(6.0 / 6.0)
		for _, v := range m.RawMatrix().Data {
			assert.LessOrEqual(t, math.Abs(v), limit)
		}

		_, err = (&GlorotUniform{}).Initialize(0, 2)
		assert.ErrorIs(t, err, ErrShape)
	})

	t.Run("glorot uniform is reproducible per seed", func(t *testing.T) {
		a, _ := NewGlorotUniform(5).Initialize(3, 3)
		b, _ := NewGlorotUniform(5).Initialize(3, 3)
		assert.True(t, Equal(a, b))

		g := NewGlorotUniform(5)
		first, _ := g.Initialize(3, 3)
		second, _ := g.Initialize(3, 3)
		assert.False(t, Equal(first, second), "consecutive variables draw different values")
	})

	t.Run("glorot uniform zero value uses the global source", func(t *testing.T) {
		m, err := (&GlorotUniform{}).Initialize(10, 20)
		require.NoError(t, err)
		limit := math.Sqrt(6.0 / 30.0)
		var distinct int
		for i, v := range m.RawMatrix().Data {
			assert.LessOrEqual(t, math.Abs(v), limit)
			if i > 0 && v != m.RawMatrix().Data[i-1] {
				distinct++
			}
		}
		assert.Greater(t, distinct, 0)
	})
}

func TestSnapshot(t *testing.T) {
	m := MustFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	snap := Snapshot(m)
	assert.Equal(t, Matrix{Rows: 2, Cols: 3, Data: []float64{1, 2, 3, 4, 5, 6}}, snap)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":2,"cols":3,"data":[1,2,3,4,5,6]}`, string(data))

	back, err := snap.Dense()
	require.NoError(t, err)
	assert.True(t, Equal(m, back))

	_, err = Matrix{Rows: 2, Cols: 2, Data: []float64{1}}.Dense()
	assert.ErrorIs(t, err, ErrShape)
}
