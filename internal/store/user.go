package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/totem-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store, hashing user.Password.
	// It sets the ID and timestamps on success.
	// Returns ErrEmailExists if the email or username is already taken.
	// Returns validation errors from the domain User if data is invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email address, compared case-insensitively.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword hashes password and stores it for the user.
	// Returns ErrUserNotFound if the user does not exist.
	UpdatePassword(ctx context.Context, id int64, password string) error

	// TouchLastLogin sets last_login_at to the current time.
	TouchLastLogin(ctx context.Context, id int64) error

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
