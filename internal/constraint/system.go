package constraint

import (
	"log/slog"

	"github.com/halverson/orrery/internal/state"
)

// System ties the solver, enforcer, and failure classifier together. This
// is the unit the execution loop calls once per step.
type System struct {
	solver     *Solver
	enforcer   *Enforcer
	classifier *Classifier
	logger     *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithEnforcerDamping overrides the default full-strength enforcement.
func WithEnforcerDamping(damping float64) SystemOption {
	return func(s *System) { s.enforcer = NewEnforcer(damping) }
}

// WithClassifier substitutes the failure classifier.
func WithClassifier(c *Classifier) SystemOption {
	return func(s *System) { s.classifier = c }
}

// WithLogger attaches a structured logger for retry and failure events.
func WithLogger(logger *slog.Logger) SystemOption {
	return func(s *System) { s.logger = logger }
}

// NewSystem builds a constraint system around the given solver config.
func NewSystem(config Config, opts ...SystemOption) *System {
	s := &System{
		solver:     NewSolver(config),
		enforcer:   NewEnforcer(1.0),
		classifier: NewClassifier(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solver exposes the underlying solver, mainly for inspection in tests.
func (s *System) Solver() *Solver { return s.solver }

// SolveAndEnforce solves the world's constraints and, when the result is
// usable, writes the corrections back into w. Unconverged results go
// through the classifier: accepted partial solutions are enforced, retry
// verdicts get exactly one more attempt with a relaxed tolerance, and
// rejections surface as a NoConvergence error. The returned result is the
// last solve attempt regardless of outcome.
func (s *System) SolveAndEnforce(w *state.WorldState) (*Result, error) {
	result, err := s.solver.Solve(w)
	if err != nil {
		return nil, err
	}
	if result.Converged {
		if err := s.enforcer.Apply(w, result); err != nil {
			return result, err
		}
		return result, nil
	}

	analysis := s.classifier.Analyze(result)
	switch analysis.Action {
	case ActionRetry:
		s.logger.Debug("constraint solve retrying with relaxed tolerance",
			"iterations", result.Iterations,
			"residual", result.Residual,
			"reason", string(analysis.Reason))
		relaxed := s.solver.Config()
		relaxed.Tolerance = s.classifier.PartialTolerance
		retry, err := NewSolver(relaxed).Solve(w)
		if err != nil {
			return nil, err
		}
		result = retry
		if !result.Converged && s.classifier.Classify(result) != ActionAccept {
			return result, &Error{
				Kind:      NoConvergence,
				Iteration: result.Iterations,
				Residual:  result.Residual,
			}
		}
		if err := s.enforcer.Apply(w, result); err != nil {
			return result, err
		}
		return result, nil

	case ActionAccept:
		s.logger.Debug("accepting partial constraint solution",
			"iterations", result.Iterations,
			"residual", result.Residual)
		if err := s.enforcer.Apply(w, result); err != nil {
			return result, err
		}
		return result, nil

	default: // ActionReject
		s.logger.Warn("constraint solve rejected",
			"iterations", result.Iterations,
			"residual", result.Residual,
			"reason", string(analysis.Reason),
			"suggestion", analysis.Suggestion)
		return result, &Error{
			Kind:      NoConvergence,
			Iteration: result.Iterations,
			Residual:  result.Residual,
		}
	}
}
