package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/totem-api/internal/config"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newJWTServiceWithClock(testSecret, time.Hour, func() time.Time { return fixedTime })
	user := &domain.User{ID: 42, Username: "admin", Role: domain.RoleAdmin}

	token, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, domain.Principal{UserID: 42, Role: domain.RoleAdmin}, claims.Principal())
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := newJWTServiceWithClock(testSecret, time.Hour, func() time.Time { return issued })
	token, err := issuer.GenerateToken(context.Background(), &domain.User{ID: 1, Role: domain.RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		now     time.Time
		token   string
		wantErr error
	}{
		{"valid", testSecret, issued.Add(30 * time.Minute), token, nil},
		{"within clock skew", testSecret, issued.Add(time.Hour + time.Minute), token, nil},
		{"expired", testSecret, issued.Add(2 * time.Hour), token, ErrExpiredToken},
		{"wrong secret", "wrong-secret-that-is-long-enough-for-testing", issued, token, ErrInvalidToken},
		{"malformed", testSecret, issued, "not-a-jwt", ErrInvalidToken},
		{"empty", testSecret, issued, "", ErrMissingToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newJWTServiceWithClock(tt.secret, time.Hour, func() time.Time { return tt.now })
			claims, err := svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), claims.UserID)
		})
	}
}

func TestValidateToken_RejectsUnknownRoleAndAlg(t *testing.T) {
	t.Parallel()
	svc := newJWTServiceWithClock(testSecret, time.Hour, time.Now)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID: 1,
		Role:   "root",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwtCustomClaims{UserID: 1, Role: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTService_Validation(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 10})
	assert.ErrorContains(t, err, "at least 32 characters")

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.ErrorContains(t, err, "token lifetime")

	svc, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, svc.TokenLifetime())
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("secret1", 4)
	require.NoError(t, err)

	v := NewBcryptVerifier()
	assert.NoError(t, v.Compare(hash, "secret1"))
	assert.Error(t, v.Compare(hash, "wrong"))
}
