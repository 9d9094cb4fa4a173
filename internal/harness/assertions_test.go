package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/state"
)

func assertionState(t *testing.T) *state.RuntimeState {
	t.Helper()
	w := state.NewWorldState()
	require.NoError(t, w.AddObject(state.NewObject("anchor", state.KindPoint).MakeStatic()))
	require.NoError(t, w.AddObject(state.NewObject("ball", state.KindSphere).
		WithPosition(state.Vec3(3, 4, 0))))
	require.NoError(t, w.AddObject(state.NewObject("top", state.KindCylinder).
		WithOrientation(state.FromAxisAngle(state.Vec3(0, 0, 1), math.Pi/2))))
	require.NoError(t, w.Parameters.Add(state.NewParameter("span", 1.5)))

	ts := state.NewTimeState()
	ts.StepCount = 7
	return state.NewRuntimeState(w, ts)
}

func TestValidateAssertion(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "valid position",
			assertion: Assertion{Type: AssertPosition, Object: "ball", Position: []float64{1, 2, 3}},
		},
		{
			name:      "position missing object",
			assertion: Assertion{Type: AssertPosition, Position: []float64{1, 2, 3}},
			wantErr:   "object is required",
		},
		{
			name:      "position wrong arity",
			assertion: Assertion{Type: AssertPosition, Object: "ball", Position: []float64{1, 2}},
			wantErr:   "exactly 3 components",
		},
		{
			name:      "valid orientation",
			assertion: Assertion{Type: AssertOrientation, Object: "ball", Orientation: []float64{1, 0, 0, 0}},
		},
		{
			name:      "orientation missing object",
			assertion: Assertion{Type: AssertOrientation, Orientation: []float64{1, 0, 0, 0}},
			wantErr:   "object is required",
		},
		{
			name:      "orientation wrong arity",
			assertion: Assertion{Type: AssertOrientation, Object: "ball", Orientation: []float64{1, 0, 0}},
			wantErr:   "exactly 4 components",
		},
		{
			name:      "parameter missing name",
			assertion: Assertion{Type: AssertParameter},
			wantErr:   "name is required",
		},
		{
			name:      "distance missing b",
			assertion: Assertion{Type: AssertDistance, A: "anchor"},
			wantErr:   "a and b are required",
		},
		{
			name:      "step_count zero is fine",
			assertion: Assertion{Type: AssertStepCount},
		},
		{
			name:      "mode missing mode",
			assertion: Assertion{Type: AssertMode},
			wantErr:   "mode is required",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "telemetry"},
			wantErr:   `unknown type "telemetry"`,
		},
		{
			name:      "negative tolerance",
			assertion: Assertion{Type: AssertStepCount, Tolerance: -1},
			wantErr:   "tolerance must not be negative",
		},
		{
			name:    "empty type",
			wantErr: "type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(0, &tt.assertion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	rs := assertionState(t)

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "position holds",
			assertion: Assertion{Type: AssertPosition, Object: "ball", Position: []float64{3, 4, 0}},
		},
		{
			name:      "position deviates",
			assertion: Assertion{Type: AssertPosition, Object: "ball", Position: []float64{3, 4, 1}},
			wantErr:   "deviates",
		},
		{
			name:      "position within loose tolerance",
			assertion: Assertion{Type: AssertPosition, Object: "ball", Position: []float64{3, 4, 1}, Tolerance: 2},
		},
		{
			name:      "position unknown object",
			assertion: Assertion{Type: AssertPosition, Object: "ghost", Position: []float64{0, 0, 0}},
			wantErr:   `object "ghost" not found`,
		},
		{
			name:      "orientation holds",
			assertion: Assertion{Type: AssertOrientation, Object: "top", Orientation: []float64{0.7071067811865476, 0, 0, 0.7071067811865476}},
		},
		{
			name:      "orientation negation is the same rotation",
			assertion: Assertion{Type: AssertOrientation, Object: "top", Orientation: []float64{-0.7071067811865476, 0, 0, -0.7071067811865476}},
		},
		{
			name:      "orientation deviates",
			assertion: Assertion{Type: AssertOrientation, Object: "top", Orientation: []float64{1, 0, 0, 0}},
			wantErr:   "deviates",
		},
		{
			name:      "orientation unknown object",
			assertion: Assertion{Type: AssertOrientation, Object: "ghost", Orientation: []float64{1, 0, 0, 0}},
			wantErr:   `object "ghost" not found`,
		},
		{
			name:      "parameter holds",
			assertion: Assertion{Type: AssertParameter, Name: "span", Value: 1.5},
		},
		{
			name:      "parameter unknown",
			assertion: Assertion{Type: AssertParameter, Name: "mass", Value: 1},
			wantErr:   `parameter "mass" not found`,
		},
		{
			name:      "distance holds",
			assertion: Assertion{Type: AssertDistance, A: "anchor", B: "ball", Distance: 5},
		},
		{
			name:      "distance deviates",
			assertion: Assertion{Type: AssertDistance, A: "anchor", B: "ball", Distance: 4},
			wantErr:   "deviates",
		},
		{
			name:      "step count holds",
			assertion: Assertion{Type: AssertStepCount, Count: 7},
		},
		{
			name:      "step count differs",
			assertion: Assertion{Type: AssertStepCount, Count: 8},
			wantErr:   "step count 7, want 8",
		},
		{
			name:      "mode holds",
			assertion: Assertion{Type: AssertMode, Mode: "paused"},
		},
		{
			name:      "mode differs",
			assertion: Assertion{Type: AssertMode, Mode: "running"},
			wantErr:   "mode paused, want running",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult()
			evaluateAssertions([]Assertion{tt.assertion}, rs, engine.Paused, result)
			if tt.wantErr == "" {
				assert.True(t, result.Pass)
				assert.Empty(t, result.Errors)
			} else {
				assert.False(t, result.Pass)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], tt.wantErr)
			}
		})
	}
}

func TestEvaluateAssertionsIndexesFailures(t *testing.T) {
	rs := assertionState(t)
	result := NewResult()
	evaluateAssertions([]Assertion{
		{Type: AssertStepCount, Count: 7},
		{Type: AssertMode, Mode: "running"},
	}, rs, engine.Paused, result)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[1] (mode)")
}
