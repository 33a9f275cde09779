package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/totem-api/internal/domain"
)

// ConfigStore persists system configuration entries. Values are stored as
// text; typing is the caller's concern.
type ConfigStore interface {
	// List returns entries ordered by category then key. An empty category
	// returns every entry.
	List(ctx context.Context, category string) ([]*domain.ConfigEntry, error)

	// Get returns the entry with the given key.
	// Returns ErrConfigNotFound if the key does not exist.
	Get(ctx context.Context, key string) (*domain.ConfigEntry, error)

	// Create inserts a new entry and sets its ID and timestamps.
	// Returns ErrConfigExists if the key is taken.
	Create(ctx context.Context, entry *domain.ConfigEntry) error

	// UpdateValue replaces the stored text of an entry.
	// Returns ErrConfigNotFound if the key does not exist.
	UpdateValue(ctx context.Context, key, raw string) error

	// Delete removes the entry. Returns ErrConfigNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Categories returns the number of entries per category, ascending by category.
	Categories(ctx context.Context) ([]domain.CategoryCount, error)

	// WithTx returns a new ConfigStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ConfigStore

	// DB returns the underlying connection pool, used to start transactions.
	DB() *sql.DB
}
