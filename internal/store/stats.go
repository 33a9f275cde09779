package store

import (
	"context"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
)

// StatsStore runs the aggregate queries behind the admin dashboard.
// Table and column names come from entity descriptors; implementations
// reject columns the descriptor does not declare.
type StatsStore interface {
	// Count returns the number of rows matching every filter.
	Count(ctx context.Context, d *domain.EntityDescriptor, filters ...domain.Assignment) (int64, error)

	// CountSince returns the number of rows created at or after since.
	CountSince(ctx context.Context, d *domain.EntityDescriptor, since time.Time) (int64, error)

	// CountBy groups the rows matching every filter by column.
	CountBy(
		ctx context.Context,
		d *domain.EntityDescriptor,
		column string,
		filters ...domain.Assignment,
	) ([]domain.GroupCount, error)

	// ChildTotals counts, for every parent row, the child rows referencing it
	// through foreignKey and how many of them are active. Parents without
	// children are included with zero counts.
	ChildTotals(
		ctx context.Context,
		parent, child *domain.EntityDescriptor,
		foreignKey string,
	) ([]domain.EntityTotals, error)

	// Latest returns up to limit rows matching every filter, newest orderBy first.
	Latest(
		ctx context.Context,
		d *domain.EntityDescriptor,
		orderBy string,
		limit int,
		filters ...domain.Assignment,
	) ([]domain.Record, error)

	// Pool pings the database and returns the connection pool counters.
	// The counters are returned even when the ping fails.
	Pool(ctx context.Context) (domain.PoolStats, error)
}
