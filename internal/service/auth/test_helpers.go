package auth

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/totem-api/internal/config"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeMinutes: 60,
		BcryptCost:           4,
	}
}

// newJWTServiceWithClock creates a JWT service with an injected clock.
func newJWTServiceWithClock(secret string, lifetime time.Duration, now func() time.Time) *hmacJWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      now,
		clockSkew:     2 * time.Minute,
	}
}

// RequireTestJWTService creates a JWT service with the default test configuration.
func RequireTestJWTService(t *testing.T) JWTService {
	t.Helper()
	svc, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err, "Failed to create test JWT service")
	return svc
}

// AuthHeaderForTesting returns a Bearer Authorization header for a user with
// the given id and role, signed with the default test configuration.
func AuthHeaderForTesting(t *testing.T, userID int64, role domain.Role) string {
	t.Helper()
	token, err := RequireTestJWTService(t).GenerateToken(context.Background(), &domain.User{
		ID:       userID,
		Username: "test-user",
		Role:     role,
	})
	require.NoError(t, err, "Failed to generate auth header")
	return "Bearer " + token
}
