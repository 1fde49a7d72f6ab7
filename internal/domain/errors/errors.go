package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range input. Reported to
	// the caller with field detail, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrPermission marks a role or ownership mismatch.
	ErrPermission = errors.New("permission denied")
	// ErrConflict marks an illegal transition from the current state or
	// a lost race on a conditional update; caller may retry with fresh
	// state.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks an absent order or user.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a payment gateway failure, distinct from local
	// validation so callers can tell "bad request" from "gateway down".
	ErrUpstream = errors.New("upstream failure")
	// ErrSignature marks a webhook payload that failed verification.
	// Dropped at the boundary without mutating state.
	ErrSignature = errors.New("invalid signature")

	ErrAlreadyExists = errors.New("already exists")
	ErrAlreadyRated  = fmt.Errorf("%w: already rated", ErrConflict)
	ErrAlreadyPaid   = fmt.Errorf("%w: already paid", ErrConflict)
	ErrNotEligible   = fmt.Errorf("%w: driver not approved or offline", ErrPermission)
)

// ValidationError carries field-level detail and unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a field-level validation error.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
