package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameter_SetValueClampsToRange(t *testing.T) {
	p := NewParameter("length", 1.0).WithKind(ParamLength).WithRange(0, 10, false)

	require.NoError(t, p.SetValue(15))
	assert.Equal(t, 10.0, p.Value)

	require.NoError(t, p.SetValue(-3))
	assert.Equal(t, 0.0, p.Value)
}

func TestParameter_SetValueWrapsAngles(t *testing.T) {
	p := NewParameter("theta", 0).WithKind(ParamAngle)
	r := AngleRange()
	p.Range = &r

	require.NoError(t, p.SetValue(3*math.Pi))
	assert.InDelta(t, math.Pi, p.Value, 1e-12)

	require.NoError(t, p.SetValue(-math.Pi/2))
	assert.InDelta(t, 3*math.Pi/2, p.Value, 1e-12)
}

func TestParameter_SetValueRejectsNonFinite(t *testing.T) {
	p := NewParameter("x", 0)
	assert.Error(t, p.SetValue(math.NaN()))
	assert.Error(t, p.SetValue(math.Inf(-1)))
	assert.Equal(t, 0.0, p.Value)
}

func TestParameterState_DerivedRejectsDirectSet(t *testing.T) {
	s := NewParameterState()
	require.NoError(t, s.Add(NewParameter("area", 0).MakeDerived("width * height")))

	err := s.Set("area", 5)
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, InvalidParameter, se.Kind)

	// The sync stage writes derived values through SetDerived.
	require.NoError(t, s.SetDerived("area", 5))
	v, ok := s.Get("area")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestParameterState_DuplicateAddRejected(t *testing.T) {
	s := NewParameterState()
	require.NoError(t, s.Add(NewParameter("x", 1)))
	assert.Error(t, s.Add(NewParameter("x", 2)))
}

func TestParameterState_IDsSorted(t *testing.T) {
	s := NewParameterState()
	require.NoError(t, s.Add(NewParameter("zeta", 1)))
	require.NoError(t, s.Add(NewParameter("alpha", 2)))
	require.NoError(t, s.Add(NewParameter("mid", 3)))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.IDs())
}

func TestParameterState_CloneIsDeep(t *testing.T) {
	s := NewParameterState()
	require.NoError(t, s.Add(NewParameter("x", 1).WithRange(0, 5, false)))

	c := s.Clone()
	require.NoError(t, c.Set("x", 4))
	c.Parameter("x").Range.Max = 100

	v, _ := s.Get("x")
	assert.Equal(t, 1.0, v)
	assert.Equal(t, 5.0, s.Parameter("x").Range.Max)
}
