package engine

import (
	"errors"
	"fmt"

	"github.com/halverson/orrery/internal/constraint"
	"github.com/halverson/orrery/internal/executor"
	"github.com/halverson/orrery/internal/motion"
	"github.com/halverson/orrery/internal/state"
)

// ConfigError reports a configuration the engine refuses to run with.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration: " + e.Reason
}

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// InternalError wraps a failure no caller action can explain. Always
// classified Fatal.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// RecoveryClass tells the caller what a failure permits. It is derived
// structurally from the error type, never guessed.
type RecoveryClass int

const (
	// Recoverable means pause, inspect, and retry are all safe; the
	// runtime state is intact.
	Recoverable RecoveryClass = iota
	// Fatal means the state can no longer be trusted; reset before
	// continuing.
	Fatal
	// RequiresIntervention means the configuration or the scene's
	// constraints must change before a retry can succeed.
	RequiresIntervention
)

func (c RecoveryClass) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Fatal:
		return "Fatal"
	case RequiresIntervention:
		return "RequiresIntervention"
	default:
		return fmt.Sprintf("RecoveryClass(%d)", int(c))
	}
}

// Classify maps any runtime error to its recovery class.
func Classify(err error) RecoveryClass {
	var werr *executor.WatchdogError
	if errors.As(err, &werr) {
		// A tripped budget aborts the run but does not corrupt state,
		// except when the trigger was NaN propagation.
		if werr.Kind == executor.NaNDetected {
			return Fatal
		}
		return Recoverable
	}

	var terr *TransitionError
	if errors.As(err, &terr) {
		return Recoverable
	}

	var perr *executor.PlanError
	if errors.As(err, &perr) {
		return RequiresIntervention
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return RequiresIntervention
	}

	var cerr *constraint.Error
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case constraint.Unstable:
			return Fatal
		case constraint.NoConvergence:
			return Recoverable
		default:
			// Conflict and EvaluationFailed need constraint changes.
			return RequiresIntervention
		}
	}

	var merr *motion.IntegrationError
	if errors.As(err, &merr) {
		if merr.Kind == motion.StepTooSmall {
			return RequiresIntervention
		}
		return Fatal
	}

	var serr *state.Error
	if errors.As(err, &serr) {
		if serr.Kind == state.InvariantViolation {
			return Fatal
		}
		return RequiresIntervention
	}

	return Fatal
}
