package motion

import (
	"errors"
	"fmt"

	"github.com/halverson/orrery/internal/state"
)

// ErrorKind categorizes integration failures.
type ErrorKind int

const (
	// Unstable means the step size or the resulting motion would blow up.
	Unstable ErrorKind = iota
	// StepTooSmall means dt fell below the minimum step.
	StepTooSmall
	// NaN means a non-finite position appeared during integration.
	NaN
)

// String returns the kind name used in logs and error text.
func (k ErrorKind) String() string {
	switch k {
	case Unstable:
		return "Unstable"
	case StepTooSmall:
		return "StepTooSmall"
	case NaN:
		return "NaN"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// IntegrationError reports a failed integration step. ObjectID is set when
// the failure is attributable to a single object.
type IntegrationError struct {
	Kind     ErrorKind
	Time     float64
	ObjectID state.ObjectID
}

func (e *IntegrationError) Error() string {
	msg := fmt.Sprintf("integration %s at t=%.6f", e.Kind, e.Time)
	if e.ObjectID != "" {
		msg += fmt.Sprintf(" [object: %s]", e.ObjectID)
	}
	return msg
}

// IsIntegrationError reports whether err is (or wraps) an *IntegrationError.
func IsIntegrationError(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie)
}
