package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no script exists for the requested ID.
	ErrNotFound = errors.New("script not found")
	// ErrForbidden is returned when the supplied owner ID does not match
	// the record's owner.
	ErrForbidden = errors.New("unauthorized access")
	// ErrInternal is returned when the vault hits an unexpected backend
	// condition, such as a second ID collision in a row.
	ErrInternal = errors.New("internal vault error")
)

// ValidationError reports malformed or oversized input. It is always
// client-correctable and never touches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// LimitError reports that the owner already holds the maximum number of
// scripts.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("maximum %d scripts per user allowed", e.Max)
}

// DuplicateError is not a failure: it redirects the caller to the
// existing record whose normalized body matches the submission.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate script; already stored as %s", e.ExistingID)
}
