package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/totem-api/internal/api/shared"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/service"
	"github.com/phrazzld/totem-api/internal/service/auth"
	"github.com/phrazzld/totem-api/internal/store"
)

const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps internal errors to HTTP status codes. Anything
// not recognized is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	// Authentication errors
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrRegistrationDisabled):
		return http.StatusForbidden

	case errors.Is(err, service.ErrOperationNotAllowed):
		return http.StatusMethodNotAllowed

	// Not found errors
	case errors.Is(err, store.ErrUnknownEntity),
		errors.Is(err, service.ErrUnknownSubresource),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrConstraint),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message that can be shown to clients.
// Validation messages are passed through; everything else is replaced by a
// fixed text so driver and SQL details never reach the response.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, service.ErrInactiveUser):
		return "User account is inactive"
	case errors.Is(err, service.ErrRegistrationDisabled):
		return "Registration is disabled"
	case errors.Is(err, service.ErrForbidden):
		return "Insufficient permissions"
	case errors.Is(err, service.ErrOperationNotAllowed):
		return "Operation not allowed for this entity"

	case errors.Is(err, store.ErrUnknownEntity):
		return "Unknown entity"
	case errors.Is(err, service.ErrUnknownSubresource):
		return "Unknown resource"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrConfigNotFound):
		return "Configuration key not found"
	case errors.Is(err, store.ErrNotFound):
		return "Record not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email or username already exists"
	case errors.Is(err, store.ErrConfigExists):
		return "Configuration key already exists"
	case errors.Is(err, store.ErrDuplicate):
		return "Record already exists"

	case errors.Is(err, store.ErrConstraint):
		return "invalid reference"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.Is(err, domain.ErrValidation):
		return validationMessage(err)

	default:
		return genericErrorMessage
	}
}

// validationMessage strips the "validation failed: " prefix carried by the
// domain sentinels.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); idx >= 0 {
		return msg[idx+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. The status and message
// come from MapErrorToStatusCode and GetSafeErrorMessage; fallbackMsg replaces
// the generic message of unexpected errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		msg = fallbackMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
