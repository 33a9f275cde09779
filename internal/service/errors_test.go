package service

import (
	"errors"
	"testing"

	"github.com/phrazzld/totem-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrUnauthenticated, ErrForbidden, ErrOperationNotAllowed,
		ErrInvalidCredentials, ErrInactiveUser, ErrRegistrationDisabled,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		op       string
		err      error
		expected string
	}{
		{
			name:     "with underlying error",
			service:  "config",
			op:       "update",
			err:      errors.New("database connection failed"),
			expected: "config service update operation failed: database connection failed",
		},
		{
			name:     "without underlying error",
			service:  "entity",
			op:       "delete",
			err:      nil,
			expected: "entity service delete operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServiceError(tt.service, tt.op, tt.err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	err := NewServiceError("entity", "list", store.ErrRecordNotFound)

	assert.ErrorIs(t, err, store.ErrNotFound)
	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "list", svcErr.Operation)
}
