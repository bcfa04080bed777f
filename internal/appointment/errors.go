package appointment

import (
	"errors"
	"fmt"
)

var (
	// ErrBookingTaken is returned by repositories when the storage-layer
	// uniqueness constraint on (provider, operatory, start) rejects a
	// write. The service translates it into a ConflictError so callers
	// cannot tell a raced insert apart from a pre-check rejection.
	ErrBookingTaken = errors.New("booking slot already taken")

	// ErrInvalidStatusTransition rejects lifecycle moves the state
	// machine does not allow, e.g. breaking a completed appointment.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InactiveResourceError reports a provider or operatory that exists but
// has been deactivated by office administration.
type InactiveResourceError struct {
	Resource string
	ID       int64
}

func (e *InactiveResourceError) Error() string {
	return fmt.Sprintf("%s %d is inactive", e.Resource, e.ID)
}

// ConflictError reports a time collision, whether caught by the pre-check
// or surfaced by the storage uniqueness constraint after a race.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
