package constraint

import (
	"fmt"

	"github.com/halverson/orrery/internal/state"
)

// Enforcer applies solver corrections to a live world. Damping scales
// every delta before application: 1.0 applies corrections fully, smaller
// values trade convergence speed for stability on stiff constraint sets.
type Enforcer struct {
	damping float64
}

// NewEnforcer creates an enforcer with the given damping factor, clamped
// to [0, 1]. Zero damping disables enforcement entirely.
func NewEnforcer(damping float64) *Enforcer {
	if damping < 0 {
		damping = 0
	}
	if damping > 1 {
		damping = 1
	}
	return &Enforcer{damping: damping}
}

// Damping returns the configured damping factor.
func (e *Enforcer) Damping() float64 { return e.damping }

// Apply writes the result's corrections into w. Object deltas are applied
// in deterministic object-ID order, parameter deltas in recorded order.
// Orientations are renormalized after application. A world that holds NaN
// after enforcement is reported as Unstable, which is a different failure
// from the solver simply not converging.
func (e *Enforcer) Apply(w *state.WorldState, result *Result) error {
	if e.damping == 0 || result == nil {
		return nil
	}

	for _, id := range w.ObjectIDs() {
		deltas, ok := result.Corrections[id]
		if !ok {
			continue
		}
		obj := w.Object(id)
		if obj == nil || obj.Static {
			continue
		}
		touched := false
		for _, d := range deltas {
			switch d.Kind {
			case CorrectPosition:
				obj.Position = obj.Position.Add(d.Vector.Scale(e.damping))
			case CorrectOrientation:
				obj.Orientation = obj.Orientation.Add(d.Quat.Scale(e.damping))
				touched = true
			case CorrectScale:
				obj.Scale = obj.Scale.Add(d.Vector.Scale(e.damping))
			}
		}
		if touched {
			obj.Orientation = obj.Orientation.Normalize()
		}
	}

	for _, d := range result.ParamCorrections {
		if d.Kind != CorrectParameter {
			continue
		}
		param := w.Parameters.Parameter(d.Param)
		if param == nil || param.Derived {
			continue
		}
		if err := param.SetValue(param.Value + d.Scalar*e.damping); err != nil {
			return &Error{
				Kind: EvaluationFailed,
				Err:  fmt.Errorf("apply correction to parameter %q: %w", d.Param, err),
			}
		}
	}

	if w.HasNaN() || w.HasInf() {
		return &Error{
			Kind: Unstable,
			Err:  fmt.Errorf("world state is non-finite after enforcement"),
		}
	}
	if err := w.Validate(); err != nil {
		return &Error{
			Kind: Unstable,
			Err:  fmt.Errorf("world state invalid after enforcement: %w", err),
		}
	}
	return nil
}
