package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/constraint"
	"github.com/halverson/orrery/internal/ir"
	"github.com/halverson/orrery/internal/state"
)

func TestTranslateParentChildResidual(t *testing.T) {
	ac, err := translateConstraint(&ir.Constraint{
		ID: "mount", Kind: ir.ConstraintParentChild, A: "base", B: "arm",
	})
	require.NoError(t, err)
	assert.Equal(t, state.ConstraintEquality, ac.Kind)

	w := state.NewWorldState()
	require.NoError(t, w.AddObject(state.NewObject("base", state.KindBox)))
	require.NoError(t, w.AddObject(
		state.NewObject("arm", state.KindBox).WithPosition(state.Vec3(3, 4, 0))))

	r, err := constraint.NewEvaluator().Residual(ac, w)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, r, 1e-9, "residual is the separation distance")

	w.Object("arm").Position = state.Zero3
	r, err = constraint.NewEvaluator().Residual(ac, w)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r, 1e-9)
}

func TestTranslateFixedAxisResidual(t *testing.T) {
	ac, err := translateConstraint(&ir.Constraint{
		ID: "hinge", Kind: ir.ConstraintFixedAxis, A: "door",
		Axis: [3]float64{0, 0, 3},
	})
	require.NoError(t, err)

	w := state.NewWorldState()
	door := state.NewObject("door", state.KindBox)
	require.NoError(t, w.AddObject(door))

	// Rotation about the permitted axis: residual zero.
	door.Orientation = state.FromAxisAngle(state.Vec3(0, 0, 1), 0.7)
	r, err := constraint.NewEvaluator().Residual(ac, w)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r, 1e-9)

	// Rotation about x violates the axis.
	door.Orientation = state.FromAxisAngle(state.Vec3(1, 0, 0), 0.7)
	r, err = constraint.NewEvaluator().Residual(ac, w)
	require.NoError(t, err)
	assert.Greater(t, math.Abs(r), 0.01)
}

func TestTranslateGearResidual(t *testing.T) {
	ac, err := translateConstraint(&ir.Constraint{
		ID: "mesh", Kind: ir.ConstraintGear, A: "driver", B: "driven", Ratio: 2.0,
	})
	require.NoError(t, err)
	assert.Equal(t, []state.ObjectID{"driver", "driven"}, ac.Objects)
	assert.Equal(t, []state.ObjectID{"driver"}, ac.Inputs, "only the driven side is corrected")

	w := state.NewWorldState()
	driver := state.NewObject("driver", state.KindCylinder)
	driven := state.NewObject("driven", state.KindCylinder)
	require.NoError(t, w.AddObject(driver))
	require.NoError(t, w.AddObject(driven))

	// Driver at 0.3 rad, driven at exactly twice that: satisfied.
	driver.Orientation = state.FromAxisAngle(state.Vec3(0, 0, 1), 0.3)
	driven.Orientation = state.FromAxisAngle(state.Vec3(0, 0, 1), 0.6)
	r, err := constraint.NewEvaluator().Residual(ac, w)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r, 1e-9)

	// Driven lags: residual is the angle deficit.
	driven.Orientation = state.FromAxisAngle(state.Vec3(0, 0, 1), 0.5)
	r, err = constraint.NewEvaluator().Residual(ac, w)
	require.NoError(t, err)
	assert.InDelta(t, -0.1, r, 1e-9)
}

func TestTranslateRejectsDegenerateInputs(t *testing.T) {
	_, err := translateConstraint(&ir.Constraint{
		ID: "bad-axis", Kind: ir.ConstraintFixedAxis, A: "a",
	})
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Error(), "nonzero")

	_, err = translateConstraint(&ir.Constraint{
		ID: "bad-gear", Kind: ir.ConstraintGear, A: "a", B: "b",
	})
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Error(), "ratio")

	_, err = translateConstraint(&ir.Constraint{ID: "odd", Kind: "weld", A: "a"})
	require.ErrorAs(t, err, &lerr)
}
