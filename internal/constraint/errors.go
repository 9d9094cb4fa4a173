package constraint

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes constraint-solving failures.
type ErrorKind int

const (
	// Conflict means constraints are mutually contradictory.
	Conflict ErrorKind = iota
	// NoConvergence means the iteration limit was reached with the residual
	// still above tolerance.
	NoConvergence
	// Unstable means a residual went NaN or infinite.
	Unstable
	// EvaluationFailed means a constraint equation could not be evaluated.
	EvaluationFailed
)

// String returns the kind name used in logs and error text.
func (k ErrorKind) String() string {
	switch k {
	case Conflict:
		return "Conflict"
	case NoConvergence:
		return "NoConvergence"
	case Unstable:
		return "Unstable"
	case EvaluationFailed:
		return "EvaluationFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a structured constraint failure carrying the iteration and
// residual at the point of failure.
type Error struct {
	Kind         ErrorKind
	ConstraintID string
	Iteration    int
	Residual     float64
	Err          error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s at iteration %d (residual: %.2e)", e.Kind, e.Iteration, e.Residual)
	if e.ConstraintID != "" {
		msg += fmt.Sprintf(" [constraint: %s]", e.ConstraintID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsConstraintError reports whether err is (or wraps) a *constraint.Error.
func IsConstraintError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// IsUnstable reports whether err is an Unstable constraint error.
func IsUnstable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == Unstable
}
