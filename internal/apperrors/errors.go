// Package apperrors defines the error taxonomy shared by the hand state
// machine, table session, and transport layers: Authentication,
// InvalidAction, InvariantViolation, Timeout, Transport, External,
// NotFound, and Capacity.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for wire-level reason mapping and logging.
type Kind string

const (
	Authentication     Kind = "authentication"
	InvalidAction      Kind = "invalid_action"
	InvariantViolation Kind = "invariant_violation"
	Timeout            Kind = "timeout"
	Transport          Kind = "transport"
	External           Kind = "external"
	NotFound           Kind = "not_found"
	Capacity           Kind = "capacity"
)

// Error wraps a Kind with a human-readable reason string.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperrors.InvalidAction) work by matching Kind
// sentinels constructed with New(kind, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with the given kind and reason.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap constructs an *Error carrying an underlying cause.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error; ok is false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ReasonOf extracts the human-readable reason of err, falling back to
// the full error text for errors outside this taxonomy.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// sentinels usable with errors.Is for call sites that only care about
// the kind, not the reason text.
var (
	ErrAuthentication     = New(Authentication, "")
	ErrInvalidAction      = New(InvalidAction, "")
	ErrInvariantViolation = New(InvariantViolation, "")
	ErrTimeout            = New(Timeout, "")
	ErrTransport          = New(Transport, "")
	ErrExternal           = New(External, "")
	ErrNotFound           = New(NotFound, "")
	ErrCapacity           = New(Capacity, "")
)
