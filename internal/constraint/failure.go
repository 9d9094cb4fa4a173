package constraint

import (
	"fmt"
	"math"
)

// FailureAction is what the caller should do with an unconverged solve.
type FailureAction string

const (
	// ActionAccept keeps the partial solution.
	ActionAccept FailureAction = "accept"
	// ActionRetry suggests another attempt with adjusted parameters.
	ActionRetry FailureAction = "retry"
	// ActionReject discards the state entirely.
	ActionReject FailureAction = "reject"
)

// FailureReason names why a solve fell short.
type FailureReason string

const (
	// ReasonInstability means NaN or Inf appeared in the residual.
	ReasonInstability FailureReason = "numerical_instability"
	// ReasonUnbounded means the residual grew without bound.
	ReasonUnbounded FailureReason = "unbounded"
	// ReasonNoProgress means iterations keep running without the residual
	// shrinking.
	ReasonNoProgress FailureReason = "no_progress"
	// ReasonInsufficientIterations means the budget ran out before the
	// solver had a fair chance.
	ReasonInsufficientIterations FailureReason = "insufficient_iterations"
	// ReasonConflict means the constraint set is likely contradictory.
	ReasonConflict FailureReason = "conflicting_constraints"
)

// FailureSeverity ranks how bad a failure is. Values order from least to
// most severe.
type FailureSeverity int

const (
	SeverityLow FailureSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s FailureSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// FailureAnalysis is the classifier's full report on one solve result.
type FailureAnalysis struct {
	Action     FailureAction
	Reason     FailureReason
	Iterations int
	Residual   float64
	Suggestion string
}

// Recoverable reports whether execution can continue with this outcome.
func (a *FailureAnalysis) Recoverable() bool {
	return a.Action == ActionRetry || a.Action == ActionAccept
}

// Fatal is the complement of Recoverable.
func (a *FailureAnalysis) Fatal() bool { return !a.Recoverable() }

// Severity maps the failure reason to a severity rank.
func (a *FailureAnalysis) Severity() FailureSeverity {
	switch a.Reason {
	case ReasonInstability, ReasonUnbounded:
		return SeverityCritical
	case ReasonConflict:
		return SeverityHigh
	case ReasonNoProgress:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (a *FailureAnalysis) String() string {
	return fmt.Sprintf("constraint failure: %s (%s), iterations=%d residual=%.2e, suggestion: %s",
		a.Reason, a.Severity(), a.Iterations, a.Residual, a.Suggestion)
}

// Classifier decides what to do when the solver does not fully converge.
type Classifier struct {
	// PartialTolerance is the residual below which an unconverged result
	// is still accepted as a usable partial solution.
	PartialTolerance float64
	// MinIterations is the budget the solver deserves before the
	// classifier concludes anything about convergence.
	MinIterations int
}

// NewClassifier returns a classifier with the standard thresholds: partial
// solutions accepted below 1e-3 residual, at least 10 iterations before
// giving up.
func NewClassifier() *Classifier {
	return &Classifier{PartialTolerance: 1e-3, MinIterations: 10}
}

// WithPartialTolerance overrides the partial-solution threshold.
func (c *Classifier) WithPartialTolerance(tol float64) *Classifier {
	c.PartialTolerance = tol
	return c
}

// Classify maps a solve result to an action. Converged results are always
// accepted. Non-finite residuals are rejected outright. Below the minimum
// iteration budget the verdict is retry; past twice the budget without a
// small enough residual the verdict is reject.
func (c *Classifier) Classify(result *Result) FailureAction {
	if result.Converged {
		return ActionAccept
	}
	if math.IsNaN(result.Residual) || math.IsInf(result.Residual, 0) {
		return ActionReject
	}
	if result.Iterations < c.MinIterations {
		return ActionRetry
	}
	if result.Residual < c.PartialTolerance {
		return ActionAccept
	}
	if result.Iterations >= c.MinIterations*2 {
		return ActionReject
	}
	return ActionRetry
}

// Analyze produces the full report: action, reason, and a remediation
// suggestion for logs and CLI output.
func (c *Classifier) Analyze(result *Result) *FailureAnalysis {
	action := c.Classify(result)

	var reason FailureReason
	switch {
	case math.IsNaN(result.Residual):
		reason = ReasonInstability
	case math.IsInf(result.Residual, 0):
		reason = ReasonUnbounded
	case result.Iterations >= c.MinIterations*2:
		reason = ReasonNoProgress
	case result.Residual > c.PartialTolerance:
		reason = ReasonInsufficientIterations
	default:
		reason = ReasonConflict
	}

	return &FailureAnalysis{
		Action:     action,
		Reason:     reason,
		Iterations: result.Iterations,
		Residual:   result.Residual,
		Suggestion: c.suggest(reason, result),
	}
}

func (c *Classifier) suggest(reason FailureReason, result *Result) string {
	switch reason {
	case ReasonInstability:
		return "reduce the time step or switch to a more stable integration scheme"
	case ReasonUnbounded:
		return "the system may be under-constrained; add constraints"
	case ReasonNoProgress:
		return fmt.Sprintf("no convergence after %d iterations; try a different solver method or relax the tolerance", result.Iterations)
	case ReasonInsufficientIterations:
		return "increase the maximum iteration count"
	default:
		return "constraints may be contradictory; review priorities and equations"
	}
}
