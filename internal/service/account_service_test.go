package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/mocks"
	"github.com/phrazzld/totem-api/internal/service"
	"github.com/phrazzld/totem-api/internal/service/auth"
	"github.com/phrazzld/totem-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountFixture struct {
	svc     service.AccountService
	users   *mocks.MockUserStore
	config  *mocks.MockConfigStore
	emitter *mocks.RecordingEmitter
}

func newAccountFixture(t *testing.T, registration string) accountFixture {
	t.Helper()
	users := mocks.NewMockUserStore(
		&domain.User{ID: 1, Username: "admin", Email: "admin@example.com", Password: "admin123",
			Role: domain.RoleAdmin, Active: true},
		&domain.User{ID: 2, Username: "retired", Email: "retired@example.com", Password: "retired1",
			Role: domain.RoleUser, Active: false},
	)
	cfg := mocks.NewMockConfigStore(&domain.ConfigEntry{
		Key: "enable_registration", RawValue: registration, Type: domain.ConfigTypeBoolean,
		Category: "security", Editable: true,
	})
	em := &mocks.RecordingEmitter{}

	svc, err := service.NewAccountService(users, cfg, auth.RequireTestJWTService(t),
		&mocks.MockPasswordVerifier{}, em, nil)
	require.NoError(t, err)
	return accountFixture{svc: svc, users: users, config: cfg, emitter: em}
}

func TestAccountService_Login(t *testing.T) {
	f := newAccountFixture(t, "true")

	res, err := f.svc.Login(context.Background(), "ADMIN@example.com", "admin123")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(1), res.User.ID)
	assert.NotNil(t, res.User.LastLoginAt)
	assert.True(t, res.ExpiresAt.After(res.User.CreatedAt))

	claims, err := auth.RequireTestJWTService(t).ValidateToken(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: 1, Role: domain.RoleAdmin}, claims.Principal())

	last := f.emitter.Last()
	require.NotNil(t, last)
	assert.Equal(t, domain.ActionLogin, last.Action)
	assert.Equal(t, "1", last.RecordID)
}

func TestAccountService_LoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "ghost@example.com", "whatever", service.ErrInvalidCredentials},
		{"wrong password", "admin@example.com", "nope", service.ErrInvalidCredentials},
		{"inactive", "retired@example.com", "retired1", service.ErrInactiveUser},
		{"missing fields", "", "", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t, "true")

			_, err := f.svc.Login(context.Background(), tt.email, tt.password)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.emitter.Events())
		})
	}
}

func TestAccountService_LoginSurvivesLastLoginFailure(t *testing.T) {
	f := newAccountFixture(t, "true")
	f.users.TouchLastLoginFn = func(context.Context, int64) error { return errors.New("db down") }

	res, err := f.svc.Login(context.Background(), "admin@example.com", "admin123")

	require.NoError(t, err)
	assert.Nil(t, res.User.LastLoginAt)
}

func TestAccountService_Register(t *testing.T) {
	f := newAccountFixture(t, "true")

	user, err := f.svc.Register(context.Background(), "carol", "carol@example.com", "secret99")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.Active)
	assert.Empty(t, user.Password)

	_, err = f.svc.Register(context.Background(), "carol2", "CAROL@example.com", "secret99")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = f.svc.Register(context.Background(), "dave", "not-an-email", "secret99")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestAccountService_RegisterDisabled(t *testing.T) {
	f := newAccountFixture(t, "false")

	_, err := f.svc.Register(context.Background(), "carol", "carol@example.com", "secret99")

	assert.ErrorIs(t, err, service.ErrRegistrationDisabled)
}

func TestAccountService_Profile(t *testing.T) {
	f := newAccountFixture(t, "true")

	user, err := f.svc.Profile(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = f.svc.Profile(context.Background(), anonymous)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := newAccountFixture(t, "true")
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, admin, "wrong", "newpass1"), service.ErrInvalidCredentials)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, admin, "admin123", "abc"), domain.ErrPasswordTooShort)
	require.NoError(t, f.svc.ChangePassword(ctx, admin, "admin123", "newpass1"))

	_, err := f.svc.Login(ctx, "admin@example.com", "newpass1")
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, "admin@example.com", "admin123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
