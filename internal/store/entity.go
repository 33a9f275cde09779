package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/totem-api/internal/domain"
)

// EntityStore persists rows of any table described by a domain.EntityDescriptor.
//
// Every identifier placed in SQL text comes from the descriptor; values are
// always bound as parameters. Records are returned with the descriptor's hidden
// columns removed.
type EntityStore interface {
	// List returns every row of the table ordered by primary key.
	List(ctx context.Context, d *domain.EntityDescriptor) ([]domain.Record, error)

	// ListBy returns the rows whose column equals value, ordered by primary key.
	// The column must be declared by the descriptor.
	ListBy(ctx context.Context, d *domain.EntityDescriptor, column string, value int64) ([]domain.Record, error)

	// GetByID returns the row with the given primary key.
	// Returns ErrRecordNotFound if no such row exists.
	GetByID(ctx context.Context, d *domain.EntityDescriptor, id int64) (domain.Record, error)

	// Create inserts a row from normalized assignments and returns the stored row.
	// Returns ErrDuplicate or ErrConstraint when the database rejects the row.
	Create(ctx context.Context, d *domain.EntityDescriptor, fields []domain.Assignment) (domain.Record, error)

	// Update applies normalized assignments to the row and returns the stored row.
	// Returns ErrRecordNotFound if no such row exists.
	Update(
		ctx context.Context,
		d *domain.EntityDescriptor,
		id int64,
		fields []domain.Assignment,
	) (domain.Record, error)

	// Delete removes the row. Returns ErrRecordNotFound if nothing was deleted.
	Delete(ctx context.Context, d *domain.EntityDescriptor, id int64) error

	// WithTx returns a new EntityStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EntityStore
}
