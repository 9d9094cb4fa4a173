package constraint

import (
	"math"

	"github.com/halverson/orrery/internal/state"
)

// Method selects the iteration scheme. All methods share the same
// per-constraint projection; the method controls when corrections become
// visible to later constraints and how step lengths are chosen, which is
// what shapes convergence character.
type Method string

const (
	// GaussSeidel applies each correction immediately, so later
	// constraints in the same iteration see it. Fastest convergence for
	// chains of compatible constraints.
	GaussSeidel Method = "gauss-seidel"
	// Jacobi evaluates every constraint against the iteration-start state
	// and applies all corrections together at the end of the iteration.
	Jacobi Method = "jacobi"
	// Newton applies the full projection step (ignores relaxation).
	Newton Method = "newton"
	// GradientDescent steps along the raw gradient scaled by relaxation,
	// without normalizing by gradient magnitude.
	GradientDescent Method = "gradient-descent"
)

// Config tunes the solver.
type Config struct {
	Tolerance     float64
	MaxIterations int
	Method        Method
	Relaxation    float64
}

// DefaultConfig matches the runtime defaults: 1e-6 tolerance, 100
// iterations, Gauss-Seidel with full relaxation.
func DefaultConfig() Config {
	return Config{
		Tolerance:     1e-6,
		MaxIterations: 100,
		Method:        GaussSeidel,
		Relaxation:    1.0,
	}
}

// CorrectionKind tags what a correction delta applies to.
type CorrectionKind string

const (
	CorrectPosition    CorrectionKind = "position"
	CorrectOrientation CorrectionKind = "orientation"
	CorrectScale       CorrectionKind = "scale"
	CorrectParameter   CorrectionKind = "parameter"
)

// CorrectionDelta is one typed correction. Vector carries position/scale
// deltas, Quat orientation deltas, Scalar parameter deltas (with Param
// naming the target parameter).
type CorrectionDelta struct {
	Kind   CorrectionKind
	Vector state.Vector3
	Quat   state.Quaternion
	Scalar float64
	Param  state.ParameterID
}

// Result is the outcome of one Solve call. Corrections hold the
// accumulated per-object deltas; ParamCorrections target world parameters
// rather than object state.
type Result struct {
	Converged        bool
	Iterations       int
	Residual         float64
	Corrections      map[state.ObjectID][]CorrectionDelta
	ParamCorrections []CorrectionDelta
}

// ObjectCount returns the number of objects with pending corrections.
func (r *Result) ObjectCount() int { return len(r.Corrections) }

// TotalCorrections returns the total number of accumulated deltas.
func (r *Result) TotalCorrections() int {
	n := len(r.ParamCorrections)
	for _, deltas := range r.Corrections {
		n += len(deltas)
	}
	return n
}

// Solver evaluates constraints iteratively and computes corrections. It
// never mutates the world it is given; all trial moves happen on a scratch
// clone.
type Solver struct {
	config Config
	eval   *Evaluator
}

// NewSolver creates a solver with the given configuration.
func NewSolver(config Config) *Solver {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultConfig().MaxIterations
	}
	if config.Tolerance <= 0 {
		config.Tolerance = DefaultConfig().Tolerance
	}
	if config.Method == "" {
		config.Method = GaussSeidel
	}
	if config.Relaxation <= 0 || config.Relaxation > 1 {
		config.Relaxation = 1.0
	}
	return &Solver{config: config, eval: NewEvaluator()}
}

// Config returns the solver configuration.
func (s *Solver) Config() Config { return s.config }

// Solve runs the configured iteration over all enabled constraints in
// priority order. Zero enabled constraints converge trivially with
// residual 0. A NaN or infinite residual aborts immediately as Unstable.
func (s *Solver) Solve(w *state.WorldState) (*Result, error) {
	result := &Result{
		Residual:    math.Inf(1),
		Corrections: make(map[state.ObjectID][]CorrectionDelta),
	}

	constraints := w.EnabledConstraints()
	if len(constraints) == 0 {
		result.Converged = true
		result.Residual = 0
		return result, nil
	}

	scratch := w.Clone()

	for iter := 0; iter < s.config.MaxIterations; iter++ {
		result.Iterations = iter + 1

		// Jacobi evaluates every constraint against the iteration-start
		// state; Gauss-Seidel and the rest see corrections immediately.
		evalWorld := scratch
		if s.config.Method == Jacobi {
			evalWorld = scratch.Clone()
		}

		maxResidual := 0.0
		allSatisfied := true
		var pending []pendingCorrection

		for _, c := range constraints {
			r, err := s.eval.Residual(c, evalWorld)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return nil, &Error{
					Kind:         Unstable,
					ConstraintID: c.ID,
					Iteration:    iter,
					Residual:     r,
				}
			}
			if abs := math.Abs(r); abs > maxResidual {
				maxResidual = abs
			}
			if math.Abs(r) <= s.config.Tolerance {
				continue
			}
			allSatisfied = false

			corrections, err := s.project(c, evalWorld, r)
			if err != nil {
				return nil, err
			}
			if s.config.Method == Jacobi {
				pending = append(pending, corrections...)
			} else {
				for _, pc := range corrections {
					pc.apply(scratch, result)
				}
			}
		}

		for _, pc := range pending {
			pc.apply(scratch, result)
		}

		result.Residual = maxResidual
		if allSatisfied {
			result.Converged = true
			break
		}
	}

	return result, nil
}

// pendingCorrection is a correction bound to its target, ready to apply.
type pendingCorrection struct {
	objectID state.ObjectID
	delta    CorrectionDelta
}

func (p pendingCorrection) apply(w *state.WorldState, result *Result) {
	switch p.delta.Kind {
	case CorrectParameter:
		if param := w.Parameters.Parameter(p.delta.Param); param != nil {
			// Trial application on the scratch world; range still applies.
			_ = param.SetValue(param.Value + p.delta.Scalar)
		}
		result.ParamCorrections = append(result.ParamCorrections, p.delta)
	case CorrectOrientation:
		if obj := w.Object(p.objectID); obj != nil {
			obj.Orientation = obj.Orientation.Add(p.delta.Quat).Normalize()
		}
		result.Corrections[p.objectID] = append(result.Corrections[p.objectID], p.delta)
	default:
		if obj := w.Object(p.objectID); obj != nil {
			obj.Position = obj.Position.Add(p.delta.Vector)
		}
		result.Corrections[p.objectID] = append(result.Corrections[p.objectID], p.delta)
	}
}

// fdStep is the finite-difference perturbation used for gradients.
const fdStep = 1e-6

// project computes the correction deltas that move the constraint's
// residual toward zero: a finite-difference gradient of the residual with
// respect to every movable referenced position, every movable referenced
// orientation component, and every writable referenced parameter, then a
// projection step -r * g / |g|^2 scaled per method. Objects named in
// c.Inputs are read-only for this constraint.
func (s *Solver) project(c *state.ActiveConstraint, w *state.WorldState, residual float64) ([]pendingCorrection, error) {
	type axisGrad struct {
		objectID state.ObjectID
		axis     int // 0=x 1=y 2=z
		g        float64
	}
	type quatGrad struct {
		objectID state.ObjectID
		comp     int // 0=w 1=x 2=y 3=z
		g        float64
	}
	type paramGrad struct {
		id state.ParameterID
		g  float64
	}

	var axes []axisGrad
	var quats []quatGrad
	var params []paramGrad
	normSq := 0.0

	for _, id := range c.Objects {
		obj := w.Object(id)
		if obj == nil || obj.Static || isInput(c, id) {
			continue
		}
		for axis := 0; axis < 3; axis++ {
			orig := getAxis(&obj.Position, axis)
			setAxis(&obj.Position, axis, orig+fdStep)
			perturbed, err := s.eval.Residual(c, w)
			setAxis(&obj.Position, axis, orig)
			if err != nil {
				return nil, err
			}
			g := (perturbed - residual) / fdStep
			if g != 0 {
				axes = append(axes, axisGrad{objectID: id, axis: axis, g: g})
				normSq += g * g
			}
		}
		for comp := 0; comp < 4; comp++ {
			orig := getQuatComp(&obj.Orientation, comp)
			setQuatComp(&obj.Orientation, comp, orig+fdStep)
			perturbed, err := s.eval.Residual(c, w)
			setQuatComp(&obj.Orientation, comp, orig)
			if err != nil {
				return nil, err
			}
			g := (perturbed - residual) / fdStep
			if g != 0 {
				quats = append(quats, quatGrad{objectID: id, comp: comp, g: g})
				normSq += g * g
			}
		}
	}

	for _, id := range c.Parameters {
		// The constraint's target parameter is an input, not a degree of
		// freedom; correcting it would satisfy constraints by moving the
		// goalposts.
		if id == c.TargetParam {
			continue
		}
		param := w.Parameters.Parameter(id)
		if param == nil || param.Derived || !param.UserControllable {
			continue
		}
		orig := param.Value
		param.Value = orig + fdStep
		perturbed, err := s.eval.Residual(c, w)
		param.Value = orig
		if err != nil {
			return nil, err
		}
		g := (perturbed - residual) / fdStep
		if g != 0 {
			params = append(params, paramGrad{id: id, g: g})
			normSq += g * g
		}
	}

	if normSq == 0 {
		// No movable degree of freedom influences this constraint.
		return nil, nil
	}

	scale := s.stepScale(residual, normSq)

	deltas := make(map[state.ObjectID]state.Vector3)
	quatDeltas := make(map[state.ObjectID]state.Quaternion)
	var out []pendingCorrection
	for _, a := range axes {
		d := deltas[a.objectID]
		setAxis(&d, a.axis, getAxis(&d, a.axis)+a.g*scale)
		deltas[a.objectID] = d
	}
	for _, q := range quats {
		d := quatDeltas[q.objectID]
		setQuatComp(&d, q.comp, getQuatComp(&d, q.comp)+q.g*scale)
		quatDeltas[q.objectID] = d
	}
	for _, id := range c.Objects {
		if d, ok := deltas[id]; ok {
			out = append(out, pendingCorrection{
				objectID: id,
				delta:    CorrectionDelta{Kind: CorrectPosition, Vector: d},
			})
		}
		if d, ok := quatDeltas[id]; ok {
			out = append(out, pendingCorrection{
				objectID: id,
				delta:    CorrectionDelta{Kind: CorrectOrientation, Quat: d},
			})
		}
	}
	for _, p := range params {
		out = append(out, pendingCorrection{
			delta: CorrectionDelta{Kind: CorrectParameter, Param: p.id, Scalar: p.g * scale},
		})
	}
	return out, nil
}

// stepScale returns the multiplier applied to each gradient component.
func (s *Solver) stepScale(residual, normSq float64) float64 {
	switch s.config.Method {
	case Newton:
		return -residual / normSq
	case GradientDescent:
		return -residual * s.config.Relaxation
	default: // GaussSeidel, Jacobi
		return -residual / normSq * s.config.Relaxation
	}
}

func getAxis(v *state.Vector3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxis(v *state.Vector3, axis int, val float64) {
	switch axis {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
}

func getQuatComp(q *state.Quaternion, comp int) float64 {
	switch comp {
	case 0:
		return q.W
	case 1:
		return q.X
	case 2:
		return q.Y
	default:
		return q.Z
	}
}

func setQuatComp(q *state.Quaternion, comp int, val float64) {
	switch comp {
	case 0:
		q.W = val
	case 1:
		q.X = val
	case 2:
		q.Y = val
	default:
		q.Z = val
	}
}

func isInput(c *state.ActiveConstraint, id state.ObjectID) bool {
	for _, in := range c.Inputs {
		if in == id {
			return true
		}
	}
	return false
}
