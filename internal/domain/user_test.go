package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.True(t, u.Active)

	_, err = NewUser("", "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrEmptyUsername)

	_, err = NewUser("alice", "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("alice", "alice@example.com", "123")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUser_ValidateRequiresHashWithoutPassword(t *testing.T) {
	u := &User{Username: "bob", Email: "bob@example.com", Role: RoleAdmin}
	assert.ErrorIs(t, u.Validate(), ErrEmptyHashedPassword)

	u.HashedPassword = "$2a$10$abc"
	assert.NoError(t, u.Validate())
}

func TestRole_Satisfies(t *testing.T) {
	assert.True(t, RoleAdmin.Satisfies(RoleModerator))
	assert.True(t, RoleModerator.Satisfies(RoleModerator))
	assert.False(t, RoleUser.Satisfies(RoleModerator))
	assert.False(t, RoleNone.Satisfies(RoleUser))
	assert.True(t, RoleNone.Satisfies(RoleNone))
	assert.False(t, Role("root").Valid())
}

func TestPrincipal_Authenticated(t *testing.T) {
	assert.False(t, Principal{}.Authenticated())
	assert.True(t, Principal{UserID: 1, Role: RoleUser}.Authenticated())
}
