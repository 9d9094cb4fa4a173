package executor

import (
	"errors"
	"fmt"
)

// WatchdogKind names which limit a watchdog tripped on.
type WatchdogKind int

const (
	// StepLimit means the step budget ran out.
	StepLimit WatchdogKind = iota
	// TimeLimit means the wall-clock budget ran out.
	TimeLimit
	// MemoryLimit means the heap budget ran out.
	MemoryLimit
	// NaNDetected means a non-finite value was reported to the watchdog.
	NaNDetected
)

// String returns the kind name used in logs and error text.
func (k WatchdogKind) String() string {
	switch k {
	case StepLimit:
		return "StepLimit"
	case TimeLimit:
		return "TimeLimit"
	case MemoryLimit:
		return "MemoryLimit"
	case NaNDetected:
		return "NaNDetected"
	default:
		return fmt.Sprintf("WatchdogKind(%d)", int(k))
	}
}

// WatchdogError reports a tripped limit. Limit and Actual are in steps for
// StepLimit, milliseconds for TimeLimit, and bytes for MemoryLimit; both
// are zero for NaNDetected.
type WatchdogError struct {
	Kind   WatchdogKind
	Limit  uint64
	Actual uint64
}

func (e *WatchdogError) Error() string {
	if e.Kind == NaNDetected {
		return "watchdog NaNDetected"
	}
	return fmt.Sprintf("watchdog %s: %d exceeds limit %d", e.Kind, e.Actual, e.Limit)
}

// IsWatchdogError reports whether err is (or wraps) a *WatchdogError.
func IsWatchdogError(err error) bool {
	var we *WatchdogError
	return errors.As(err, &we)
}

// PlanError reports an execution plan that cannot run.
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string { return "invalid plan: " + e.Reason }

// IsPlanError reports whether err is (or wraps) a *PlanError.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}
