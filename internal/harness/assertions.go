package harness

import (
	"fmt"
	"math"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/state"
)

// Assertion type constants.
const (
	AssertPosition    = "position"
	AssertOrientation = "orientation"
	AssertParameter   = "parameter"
	AssertDistance    = "distance"
	AssertStepCount   = "step_count"
	AssertMode        = "mode"
)

// defaultTolerance is used when an assertion does not set one.
const defaultTolerance = 1e-9

// Assertion validates the final state after a scenario run.
type Assertion struct {
	// Type selects the check:
	// - "position": object ends within tolerance of Position
	// - "orientation": object ends within tolerance of Orientation
	// - "parameter": parameter Name ends within tolerance of Value
	// - "distance": objects A and B end Distance apart within tolerance
	// - "step_count": exactly Count steps executed
	// - "mode": the engine finished in Mode
	Type string `yaml:"type"`

	// Object is the object id (used by position).
	Object string `yaml:"object,omitempty"`

	// A and B are object ids (used by distance).
	A string `yaml:"a,omitempty"`
	B string `yaml:"b,omitempty"`

	// Name is the parameter id (used by parameter).
	Name string `yaml:"name,omitempty"`

	// Position is the expected position (used by position).
	Position []float64 `yaml:"position,omitempty"`

	// Orientation is the expected rotation as [w, x, y, z]
	// (used by orientation).
	Orientation []float64 `yaml:"orientation,omitempty"`

	// Value is the expected parameter value (used by parameter).
	Value float64 `yaml:"value,omitempty"`

	// Distance is the expected separation (used by distance).
	Distance float64 `yaml:"distance,omitempty"`

	// Count is the expected step count (used by step_count).
	Count uint64 `yaml:"count,omitempty"`

	// Mode is the expected execution state (used by mode).
	Mode string `yaml:"mode,omitempty"`

	// Tolerance bounds the allowed numeric deviation. Zero means the
	// default of 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPosition:
		if a.Object == "" {
			return fmt.Errorf("assertions[%d]: object is required for position", index)
		}
		if len(a.Position) != 3 {
			return fmt.Errorf("assertions[%d]: position must have exactly 3 components", index)
		}
	case AssertOrientation:
		if a.Object == "" {
			return fmt.Errorf("assertions[%d]: object is required for orientation", index)
		}
		if len(a.Orientation) != 4 {
			return fmt.Errorf("assertions[%d]: orientation must have exactly 4 components", index)
		}
	case AssertParameter:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for parameter", index)
		}
	case AssertDistance:
		if a.A == "" || a.B == "" {
			return fmt.Errorf("assertions[%d]: a and b are required for distance", index)
		}
	case AssertStepCount:
		// Count zero is legal: a command-only scenario may step nothing.
	case AssertMode:
		if a.Mode == "" {
			return fmt.Errorf("assertions[%d]: mode is required for mode", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}

	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must not be negative", index)
	}
	return nil
}

// evaluateAssertions runs every assertion against the final state,
// appending failures to the result.
func evaluateAssertions(assertions []Assertion, rs *state.RuntimeState, mode engine.ExecutionState, result *Result) {
	for i, a := range assertions {
		if err := evaluateAssertion(&a, rs, mode); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}
}

func evaluateAssertion(a *Assertion, rs *state.RuntimeState, mode engine.ExecutionState) error {
	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}

	switch a.Type {
	case AssertPosition:
		obj, ok := rs.World.Objects[a.Object]
		if !ok {
			return fmt.Errorf("object %q not found", a.Object)
		}
		want := state.Vector3{X: a.Position[0], Y: a.Position[1], Z: a.Position[2]}
		if d := obj.Position.Sub(want).Length(); d > tol {
			return fmt.Errorf("position %v deviates from %v by %v (tolerance %v)",
				obj.Position, want, d, tol)
		}

	case AssertOrientation:
		obj, ok := rs.World.Objects[a.Object]
		if !ok {
			return fmt.Errorf("object %q not found", a.Object)
		}
		want := state.Quaternion{W: a.Orientation[0], X: a.Orientation[1],
			Y: a.Orientation[2], Z: a.Orientation[3]}
		// q and -q are the same rotation; deviation is against the
		// nearer of the two.
		if d := quaternionDeviation(obj.Orientation, want); d > tol {
			return fmt.Errorf("orientation %v deviates from %v by %v (tolerance %v)",
				obj.Orientation, want, d, tol)
		}

	case AssertParameter:
		value, ok := rs.World.Parameters.Get(a.Name)
		if !ok {
			return fmt.Errorf("parameter %q not found", a.Name)
		}
		if d := math.Abs(value - a.Value); d > tol {
			return fmt.Errorf("value %v deviates from %v by %v (tolerance %v)",
				value, a.Value, d, tol)
		}

	case AssertDistance:
		objA, ok := rs.World.Objects[a.A]
		if !ok {
			return fmt.Errorf("object %q not found", a.A)
		}
		objB, ok := rs.World.Objects[a.B]
		if !ok {
			return fmt.Errorf("object %q not found", a.B)
		}
		got := objA.Position.Sub(objB.Position).Length()
		if d := math.Abs(got - a.Distance); d > tol {
			return fmt.Errorf("separation %v deviates from %v by %v (tolerance %v)",
				got, a.Distance, d, tol)
		}

	case AssertStepCount:
		if rs.Time.StepCount != a.Count {
			return fmt.Errorf("step count %d, want %d", rs.Time.StepCount, a.Count)
		}

	case AssertMode:
		if string(mode) != a.Mode {
			return fmt.Errorf("mode %s, want %s", mode, a.Mode)
		}
	}
	return nil
}

// quaternionDeviation is the component distance between got and the
// nearer of want and its negation.
func quaternionDeviation(got, want state.Quaternion) float64 {
	dist := func(q state.Quaternion) float64 {
		dw := got.W - q.W
		dx := got.X - q.X
		dy := got.Y - q.Y
		dz := got.Z - q.Z
		return math.Sqrt(dw*dw + dx*dx + dy*dy + dz*dz)
	}
	return math.Min(dist(want), dist(want.Scale(-1)))
}
