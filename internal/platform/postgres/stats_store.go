package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
)

// PostgresStatsStore implements store.StatsStore with COUNT and GROUP BY
// queries over descriptor tables. It needs the pool itself, not a DBTX,
// to report connection statistics.
type PostgresStatsStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the StatsStore interface.
func NewPostgresStatsStore(db *sql.DB, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

var _ store.StatsStore = (*PostgresStatsStore)(nil)

// where renders the filters as " WHERE a = $1 AND b = $2".
func where(d *domain.EntityDescriptor, filters []domain.Assignment) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, len(filters))
	args := make([]any, len(filters))
	for i, f := range filters {
		if !d.HasColumn(f.Column) {
			return "", nil, undeclared(d, f.Column)
		}
		conds[i] = fmt.Sprintf("%s = $%d", quoteIdent(f.Column), i+1)
		args[i] = f.Value
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func undeclared(d *domain.EntityDescriptor, column string) error {
	return fmt.Errorf("%w: %s has no column %q", domain.ErrInvalidDescriptor, d.Name, column)
}

// Count implements store.StatsStore.Count
func (s *PostgresStatsStore) Count(
	ctx context.Context,
	d *domain.EntityDescriptor,
	filters ...domain.Assignment,
) (int64, error) {
	cond, args, err := where(d, filters)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(d.Table), cond)
	return s.count(ctx, d, "count", query, args...)
}

// CountSince implements store.StatsStore.CountSince
func (s *PostgresStatsStore) CountSince(ctx context.Context, d *domain.EntityDescriptor, since time.Time) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s >= $1",
		quoteIdent(d.Table), quoteIdent(domain.CreatedAtColumn))
	return s.count(ctx, d, "count_since", query, since)
}

func (s *PostgresStatsStore) count(
	ctx context.Context,
	d *domain.EntityDescriptor,
	op, query string,
	args ...any,
) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count records",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.String("operation", op))
		return 0, classify(d.Table, op, err)
	}
	return n, nil
}

// CountBy implements store.StatsStore.CountBy
func (s *PostgresStatsStore) CountBy(
	ctx context.Context,
	d *domain.EntityDescriptor,
	column string,
	filters ...domain.Assignment,
) ([]domain.GroupCount, error) {
	if !d.HasColumn(column) {
		return nil, undeclared(d, column)
	}
	cond, args, err := where(d, filters)
	if err != nil {
		return nil, err
	}
	col := quoteIdent(column)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s%s GROUP BY %s ORDER BY %s",
		col, quoteIdent(d.Table), cond, col, col)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to group records",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.String("column", column))
		return nil, classify(d.Table, "count_by", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.GroupCount, 0)
	for rows.Next() {
		var value sql.NullString
		var gc domain.GroupCount
		if err := rows.Scan(&value, &gc.Count); err != nil {
			return nil, classify(d.Table, "count_by", err)
		}
		gc.Value = value.String
		out = append(out, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(d.Table, "count_by", err)
	}
	return out, nil
}

// ChildTotals implements store.StatsStore.ChildTotals
func (s *PostgresStatsStore) ChildTotals(
	ctx context.Context,
	parent, child *domain.EntityDescriptor,
	foreignKey string,
) ([]domain.EntityTotals, error) {
	if !parent.HasColumn("name") {
		return nil, undeclared(parent, "name")
	}
	if !child.HasColumn(foreignKey) {
		return nil, undeclared(child, foreignKey)
	}
	if !child.HasColumn("active") {
		return nil, undeclared(child, "active")
	}

	pk, ck := quoteIdent(parent.PrimaryKey()), quoteIdent(child.PrimaryKey())
	query := fmt.Sprintf(
		"SELECT p.%s, p.%s, COUNT(c.%s), COUNT(c.%s) FILTER (WHERE c.%s) "+
			"FROM %s p LEFT JOIN %s c ON c.%s = p.%s "+
			"GROUP BY p.%s, p.%s ORDER BY p.%s",
		pk, `"name"`, ck, ck, `"active"`,
		quoteIdent(parent.Table), quoteIdent(child.Table), quoteIdent(foreignKey), pk,
		pk, `"name"`, `"name"`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to total child records",
			slog.String("error", err.Error()),
			slog.String("parent", parent.Table),
			slog.String("child", child.Table))
		return nil, classify(parent.Table, "child_totals", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.EntityTotals, 0)
	for rows.Next() {
		var t domain.EntityTotals
		if err := rows.Scan(&t.ID, &t.Name, &t.Total, &t.Active); err != nil {
			return nil, classify(parent.Table, "child_totals", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(parent.Table, "child_totals", err)
	}
	return out, nil
}

// Latest implements store.StatsStore.Latest
func (s *PostgresStatsStore) Latest(
	ctx context.Context,
	d *domain.EntityDescriptor,
	orderBy string,
	limit int,
	filters ...domain.Assignment,
) ([]domain.Record, error) {
	if !d.HasColumn(orderBy) {
		return nil, undeclared(d, orderBy)
	}
	cond, args, err := where(d, filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s DESC NULLS LAST, %s DESC LIMIT $%d",
		quoteIdent(d.Table), cond, quoteIdent(orderBy), quoteIdent(d.PrimaryKey()), len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list latest records",
			slog.String("error", err.Error()),
			slog.String("table", d.Table))
		return nil, classify(d.Table, "latest", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, classify(d.Table, "latest", err)
	}
	for _, rec := range records {
		d.Redact(rec)
	}
	return records, nil
}

// Pool implements store.StatsStore.Pool
func (s *PostgresStatsStore) Pool(ctx context.Context) (domain.PoolStats, error) {
	err := s.db.PingContext(ctx)
	st := s.db.Stats()
	stats := domain.PoolStats{
		OpenConnections: st.OpenConnections,
		InUse:           st.InUse,
		Idle:            st.Idle,
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("database ping failed",
			slog.String("error", err.Error()))
		return stats, store.NewStoreError("database", "ping", "database unreachable", err)
	}
	return stats, nil
}
