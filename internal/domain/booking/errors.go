package booking

import "fmt"

// ConflictError reports a date overlap with a blocking booking. It carries
// enough of the other side (first name and status only) for user display.
type ConflictError struct {
	BookingID string
	Requester string
	Status    Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dates overlap an existing booking (%s, %s)", e.Requester, e.Status)
}

// ValidationError is a malformed field or rule violation. Always locally
// recoverable; never worth an automatic retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StateTransitionError means the operation is illegal for the booking's
// current status (or its span lies in the past).
type StateTransitionError struct {
	Status Status
	Op     string
	Reason string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s booking: %s", e.Op, e.Status, e.Reason)
}

// AuthorizationError means the caller's identity does not match the role
// the operation requires.
type AuthorizationError struct {
	Op string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not allowed to %s this booking", e.Op)
}
