package state

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes invalid-state errors.
type ErrorKind int

const (
	// InvalidObject means an object's state violates its invariants.
	InvalidObject ErrorKind = iota
	// InvalidParameter means a parameter is out of range or non-finite.
	InvalidParameter
	// InvalidTime means the time state is inconsistent with its bounds.
	InvalidTime
	// InvariantViolation covers aggregate invariants (checksum mismatch,
	// dangling constraint references, NaN propagation).
	InvariantViolation
)

// String returns the kind name used in logs and error text.
func (k ErrorKind) String() string {
	switch k {
	case InvalidObject:
		return "InvalidObject"
	case InvalidParameter:
		return "InvalidParameter"
	case InvalidTime:
		return "InvalidTime"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a structured invalid-state error. ObjectID is set when the
// failure is attributable to a single object.
type Error struct {
	Kind     ErrorKind
	ObjectID string
	Details  string
}

func (e *Error) Error() string {
	if e.ObjectID != "" {
		return fmt.Sprintf("%s: %s [object: %s]", e.Kind, e.Details, e.ObjectID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Details)
}

// NewError builds an Error without object attribution.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Details: fmt.Sprintf(format, args...)}
}

// NewObjectError builds an Error attributed to a specific object.
func NewObjectError(kind ErrorKind, objectID, format string, args ...any) *Error {
	return &Error{Kind: kind, ObjectID: objectID, Details: fmt.Sprintf(format, args...)}
}

// IsStateError reports whether err is (or wraps) a *state.Error.
func IsStateError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
