package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested row or key does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a uniqueness
	// constraint, either detected by a pre-check or reported by the database.
	ErrDuplicate = errors.New("entity already exists")

	// ErrConstraint is returned when the database rejects a write because of a
	// foreign key, check or not-null constraint. The wrapped error carries the
	// constraint detail for logs only.
	ErrConstraint = errors.New("constraint violation")

	// ErrUnknownEntity is returned when an operation names a table that is not
	// part of the entity registry.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrRecordNotFound indicates that no row of an entity table has the requested id.
	ErrRecordNotFound = fmt.Errorf("%w: record", ErrNotFound)

	// ErrConfigNotFound indicates that the configuration key does not exist.
	ErrConfigNotFound = fmt.Errorf("%w: configuration", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrConfigExists indicates a configuration entry with the key already exists.
	ErrConfigExists = fmt.Errorf("%w: configuration key", ErrDuplicate)

	// ErrEmailExists indicates that a user with the given email or username already exists.
	ErrEmailExists = fmt.Errorf("%w: email or username", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a storage failure with the entity and operation that caused it.
// It is the catch-all for errors that are neither not-found, duplicate nor
// constraint violations: connectivity, timeouts, unexpected driver errors.
type StoreError struct {
	Entity    string // The table or entity (e.g., "regions", "config")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
