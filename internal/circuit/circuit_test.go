package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolicCircuit() *Circuit {
	c := New(3, 0)
	for q := range 3 {
		c.AddGate(TypeH, q)
		c.AddSymbolicGate(TypeRY, q, c.NewParameter())
	}
	c.AddGate(TypeCX, 1, 0)
	c.AddSymbolicGate(TypeRZ, 1, c.NewParameter())
	c.AddGate(TypeCX, 1, 0)
	return c
}

func TestBindIsPure(t *testing.T) {
	c := symbolicCircuit()
	require.Len(t, c.Parameters(), 4)

	bound, err := c.BindStrict([]float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	require.NoError(t, bound.Validate())
	assert.Empty(t, bound.Parameters())
	assert.Equal(t, []float64{0.4}, bound.Gates[7].Params)

	// The template keeps its symbolic angles.
	assert.Len(t, c.Parameters(), 4)
	assert.NotNil(t, c.Gates[7].Param)
	assert.ErrorIs(t, c.Validate(), ErrUnboundParameters)
}

func TestBindPartialAndTooMany(t *testing.T) {
	c := symbolicCircuit()

	partial, err := c.Bind([]float64{1, 2})
	require.NoError(t, err)
	left := partial.Parameters()
	require.Len(t, left, 2)
	assert.Equal(t, "p2", left[0].Name)

	_, err = c.BindStrict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrUnboundParameters)

	_, err = c.Bind([]float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrTooManyValues)
}

func TestRemoveAndRemap(t *testing.T) {
	c := New(3, 0)
	c.AddGate(TypeH, 0)
	c.AddGate(TypeCX, 1, 0)
	c.AddBarrier()
	c.AddGate(TypeCX, 2, 0)
	c.AddGate(TypeRX, 2)

	c.RemoveGatesOnQubit(1)
	require.Len(t, c.Gates, 4)
	assert.Equal(t, TypeBarrier, c.Gates[1].Type)

	out, err := c.Remap(map[int]int{0: 0, 2: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumQubits)
	assert.Equal(t, []int{0, 1}, out.Gates[2].Qubits())
	assert.Equal(t, []int{0, 1}, out.ActiveQubits())

	_, err = c.Remap(map[int]int{0: 0}, 1)
	assert.ErrorIs(t, err, ErrQubitRange)
}

func TestRemoveGatesOnQubitRenumbersParameters(t *testing.T) {
	c := New(3, 0)
	a, b, d := c.NewParameter(), c.NewParameter(), c.NewParameter()
	c.AddSymbolicGate(TypeRY, 0, a)
	c.AddSymbolicGate(TypeRY, 1, b)
	c.AddSymbolicGate(TypeRZ, 2, d)
	orig := c.Clone()

	c.RemoveGatesOnQubit(1)
	params := c.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "p0", params[0].Name)
	assert.Equal(t, "p1", params[1].Name)
	assert.Same(t, params[1], c.Gates[1].Param)
	assert.Equal(t, []int{0, 1}, []int{c.Gates[0].Step, c.Gates[1].Step})

	// The clone taken before removal keeps its own names.
	assert.Equal(t, "p2", orig.Gates[2].Param.Name)

	bound, err := c.BindStrict([]float64{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2}, bound.Gates[1].Params)
	assert.Equal(t, 2, bound.Gates[1].Target)
}

func TestDepthAndCounts(t *testing.T) {
	c := New(3, 3)
	c.AddGate(TypeH, 0)
	c.AddGate(TypeH, 1)
	c.AddGate(TypeCX, 1, 0)
	c.AddBarrier()
	c.AddGate(TypeCX, 2, 1)
	c.MeasureAll()

	assert.Equal(t, 4, c.Depth())
	assert.Equal(t, 7, c.Size())
	assert.Equal(t, 2, c.TwoQubitCount())
	assert.Equal(t, "barrier:1 cx:2 h:2 measure:3", FormatOps(c.CountOps()))
}

func TestValidateRanges(t *testing.T) {
	c := New(2, 1)
	c.AddGate(TypeCX, 2, 0)
	assert.ErrorIs(t, c.Validate(), ErrQubitRange)

	c = New(2, 1)
	c.Append(Gate{Type: TypeMeasure, Target: 0, Control: -1, Clbit: 3})
	assert.Equal(t, 4, c.NumClbits)
	assert.NoError(t, c.Validate())
}

func TestUMatrixMatchesRotations(t *testing.T) {
	const tol = 1e-12
	x, _ := Unitary(Gate{Type: TypeX, Control: -1})
	u := UMatrix(math.Pi, 0, math.Pi)
	assert.True(t, u.EqualUpToPhase(x, tol))

	sx, _ := Unitary(Gate{Type: TypeSX, Control: -1})
	assert.True(t, sx.EqualUpToPhase(RXMatrix(math.Pi/2), tol))
	assert.True(t, sx.CommutesWithX(tol))

	rz := RZMatrix(0.7)
	assert.True(t, rz.IsDiagonal(tol))
	assert.False(t, RXMatrix(0.7).IsDiagonal(tol))

	_, ok := Unitary(Gate{Type: TypeRZ, Control: -1, Param: &Parameter{Name: "p0"}})
	assert.False(t, ok)
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), 1e-12)
	assert.InDelta(t, 0.25, NormalizeAngle(0.25+4*math.Pi), 1e-12)
}
