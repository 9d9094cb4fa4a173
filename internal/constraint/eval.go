package constraint

import (
	"fmt"
	"math"

	lua "github.com/Shopify/go-lua"

	"github.com/halverson/orrery/internal/state"
)

// Evaluator computes constraint residuals. Equation-backed constraints run
// as Lua expressions; distance and angle constraints are computed directly.
//
// For each evaluation the referenced parameters are bound as numeric
// globals under their ids, and each referenced object is bound as a table:
//
//	<id>.position.{x,y,z}
//	<id>.scale.{x,y,z}
//	<id>.orientation.{w,x,y,z}
//
// The expression must evaluate to a number; that number is the residual.
// Evaluator is not safe for concurrent use, matching the runtime's
// single-threaded execution model.
type Evaluator struct {
	l *lua.State
}

// NewEvaluator creates an evaluator with a private Lua state. Only the
// base and math libraries are opened; the expression language is pure.
func NewEvaluator() *Evaluator {
	l := lua.NewState()
	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)
	return &Evaluator{l: l}
}

// Residual evaluates one constraint against the world and returns its
// directed violation magnitude. Zero means satisfied.
func (e *Evaluator) Residual(c *state.ActiveConstraint, w *state.WorldState) (float64, error) {
	switch c.Kind {
	case state.ConstraintDistance:
		return e.distanceResidual(c, w)
	case state.ConstraintAngle:
		return e.angleResidual(c, w)
	case state.ConstraintInequality:
		f, err := e.expressionResidual(c, w)
		if err != nil {
			return 0, err
		}
		// f(x) >= 0: violation only when f is negative.
		return math.Max(0, -f), nil
	default:
		return e.expressionResidual(c, w)
	}
}

func (e *Evaluator) distanceResidual(c *state.ActiveConstraint, w *state.WorldState) (float64, error) {
	if len(c.Objects) != 2 {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("distance constraint needs 2 objects, got %d", len(c.Objects))}
	}
	a, b := w.Object(c.Objects[0]), w.Object(c.Objects[1])
	if a == nil || b == nil {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("referenced object missing")}
	}
	target, err := e.target(c, w)
	if err != nil {
		return 0, err
	}
	return b.Position.Sub(a.Position).Length() - target, nil
}

// angleResidual measures the angle at the middle of three objects against
// the target angle in radians.
func (e *Evaluator) angleResidual(c *state.ActiveConstraint, w *state.WorldState) (float64, error) {
	if len(c.Objects) != 3 {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("angle constraint needs 3 objects, got %d", len(c.Objects))}
	}
	a, v, b := w.Object(c.Objects[0]), w.Object(c.Objects[1]), w.Object(c.Objects[2])
	if a == nil || v == nil || b == nil {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("referenced object missing")}
	}
	va := a.Position.Sub(v.Position)
	vb := b.Position.Sub(v.Position)
	la, lb := va.Length(), vb.Length()
	if la == 0 || lb == 0 {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("degenerate angle: coincident objects")}
	}
	target, err := e.target(c, w)
	if err != nil {
		return 0, err
	}
	cos := va.Dot(vb) / (la * lb)
	if cos < -1 {
		cos = -1
	} else if cos > 1 {
		cos = 1
	}
	return math.Acos(cos) - target, nil
}

func (e *Evaluator) target(c *state.ActiveConstraint, w *state.WorldState) (float64, error) {
	if c.TargetParam != "" {
		v, ok := w.Parameters.Get(c.TargetParam)
		if !ok {
			return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
				Err: fmt.Errorf("target parameter %s not found", c.TargetParam)}
		}
		return v, nil
	}
	return c.Target, nil
}

func (e *Evaluator) expressionResidual(c *state.ActiveConstraint, w *state.WorldState) (float64, error) {
	if c.Equation == "" {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("%s constraint has no equation", c.Kind)}
	}
	e.bind(c, w)

	if err := lua.DoString(e.l, "return "+c.Equation); err != nil {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("evaluate %q: %w", c.Equation, err)}
	}
	v, ok := e.l.ToNumber(-1)
	e.l.Pop(1)
	if !ok {
		return 0, &Error{Kind: EvaluationFailed, ConstraintID: c.ID,
			Err: fmt.Errorf("equation %q did not produce a number", c.Equation)}
	}
	return v, nil
}

// EvaluateExpression evaluates a free-standing expression with every world
// parameter bound as a global. Used for derived-parameter recomputation,
// where expressions are not tied to a constraint's declared inputs.
func (e *Evaluator) EvaluateExpression(expr string, w *state.WorldState) (float64, error) {
	if expr == "" {
		return 0, &Error{Kind: EvaluationFailed,
			Err: fmt.Errorf("empty expression")}
	}
	for _, id := range w.Parameters.IDs() {
		v, _ := w.Parameters.Get(id)
		e.l.PushNumber(v)
		e.l.SetGlobal(id)
	}
	if err := lua.DoString(e.l, "return "+expr); err != nil {
		return 0, &Error{Kind: EvaluationFailed,
			Err: fmt.Errorf("evaluate %q: %w", expr, err)}
	}
	v, ok := e.l.ToNumber(-1)
	e.l.Pop(1)
	if !ok {
		return 0, &Error{Kind: EvaluationFailed,
			Err: fmt.Errorf("expression %q did not produce a number", expr)}
	}
	return v, nil
}

// bind installs the constraint's referenced parameters and objects as Lua
// globals. Previously bound globals are overwritten, never cleared; the
// compiler guarantees equations only reference their declared inputs.
func (e *Evaluator) bind(c *state.ActiveConstraint, w *state.WorldState) {
	for _, id := range c.Parameters {
		if v, ok := w.Parameters.Get(id); ok {
			e.l.PushNumber(v)
			e.l.SetGlobal(id)
		}
	}
	for _, id := range c.Objects {
		obj := w.Object(id)
		if obj == nil {
			continue
		}
		e.l.NewTable()
		pushVec(e.l, "position", obj.Position)
		pushVec(e.l, "scale", obj.Scale)
		pushQuat(e.l, "orientation", obj.Orientation)
		e.l.SetGlobal(id)
	}
}

func pushVec(l *lua.State, field string, v state.Vector3) {
	l.NewTable()
	l.PushNumber(v.X)
	l.SetField(-2, "x")
	l.PushNumber(v.Y)
	l.SetField(-2, "y")
	l.PushNumber(v.Z)
	l.SetField(-2, "z")
	l.SetField(-2, field)
}

func pushQuat(l *lua.State, field string, q state.Quaternion) {
	l.NewTable()
	l.PushNumber(q.W)
	l.SetField(-2, "w")
	l.PushNumber(q.X)
	l.SetField(-2, "x")
	l.PushNumber(q.Y)
	l.SetField(-2, "y")
	l.PushNumber(q.Z)
	l.SetField(-2, "z")
	l.SetField(-2, field)
}
