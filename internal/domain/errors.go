package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when input fails validation.
	// It is usually wrapped by a ValidationError carrying the specific message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrInvalidConfigType is returned for a configuration type outside string/number/boolean/json.
	ErrInvalidConfigType = fmt.Errorf("%w: invalid configuration type", ErrValidation)

	// ErrNotEditable is returned when a non-editable configuration entry is mutated.
	ErrNotEditable = fmt.Errorf("%w: configuration entry is not editable", ErrValidation)

	// ErrInvalidDescriptor is returned when an entity descriptor cannot be registered.
	ErrInvalidDescriptor = errors.New("invalid entity descriptor")
)

// ValidationError describes a rejected input. The message is safe to show to callers.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError. When err is nil the error
// wraps ErrValidation so errors.Is(err, ErrValidation) always holds.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
