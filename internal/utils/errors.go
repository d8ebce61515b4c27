package utils

import "errors"

// Common application errors used across services.
var (
	ErrValidation   = errors.New("VALIDATION_ERROR")
	ErrNotFound     = errors.New("NOT_FOUND")
	ErrSuperseded   = errors.New("SUPERSEDED")
	ErrLockBusy     = errors.New("MUTATION_IN_PROGRESS")
	ErrInvalidToken = errors.New("INVALID_TOKEN")
)

// ValidationError is a user-facing rejection raised before any storage call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// NotFoundError reports a missing entity by kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
