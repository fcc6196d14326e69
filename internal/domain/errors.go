package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound means the session id is unknown to the engine and
	// to the persistence layer.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInactive means the session exists but is in a terminal
	// state and no longer accepts turns.
	ErrSessionInactive = errors.New("session is not active")

	// ErrAgentNotFound means the requested personality is not in the catalog.
	ErrAgentNotFound = errors.New("agent personality not found")

	// ErrExternalService wraps failures of the reasoning-model or
	// persistence collaborators that could not be recovered locally.
	ErrExternalService = errors.New("external service failure")

	// ErrUnparsableResponse means an external model returned output that
	// does not match the expected structure. Always recovered locally by
	// discarding the model's contribution.
	ErrUnparsableResponse = errors.New("unparsable model response")
)

// ValidationError reports malformed caller input. It is raised before any
// state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a caller-input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
