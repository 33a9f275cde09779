package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is to check for them; the API layer maps each one to an
// HTTP status code.
var (
	// ErrUnauthenticated indicates the operation requires a logged-in caller.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates the caller's role is below the role the operation requires.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrOperationNotAllowed indicates the entity does not support the operation
	// at all, e.g. writes to a read-only table.
	// API layer should map this to HTTP 405 Method Not Allowed.
	ErrOperationNotAllowed = errors.New("operation not allowed for this entity")

	// ErrUnknownSubresource indicates a relation or action the entity does not declare.
	// API layer should map this to HTTP 404 Not Found.
	ErrUnknownSubresource = errors.New("unknown relation or action")

	// ErrInvalidCredentials indicates a login with an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInactiveUser indicates the account exists but has been deactivated.
	ErrInactiveUser = errors.New("user account is inactive")

	// ErrRegistrationDisabled indicates self-registration is switched off by
	// the enable_registration configuration key.
	ErrRegistrationDisabled = errors.New("registration is disabled")
)

// ServiceError wraps unexpected failures with the service and operation
// that produced them.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
