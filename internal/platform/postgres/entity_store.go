package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
)

// PostgresEntityStore implements the store.EntityStore interface for any
// table described by an entity descriptor.
type PostgresEntityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEntityStore creates a new PostgreSQL implementation of the EntityStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresEntityStore(db store.DBTX, logger *slog.Logger) *PostgresEntityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEntityStore{
		db:     db,
		logger: logger.With(slog.String("component", "entity_store")),
	}
}

// Ensure PostgresEntityStore implements store.EntityStore interface
var _ store.EntityStore = (*PostgresEntityStore)(nil)

// WithTx implements store.EntityStore.WithTx
func (s *PostgresEntityStore) WithTx(tx *sql.Tx) store.EntityStore {
	return &PostgresEntityStore{db: tx, logger: s.logger}
}

// quoteIdent quotes a descriptor identifier for inclusion in SQL text.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// List implements store.EntityStore.List
func (s *PostgresEntityStore) List(ctx context.Context, d *domain.EntityDescriptor) ([]domain.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", quoteIdent(d.Table), quoteIdent(d.PrimaryKey()))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list records",
			slog.String("error", err.Error()),
			slog.String("table", d.Table))
		return nil, classify(d.Table, "list", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		log.Error("failed to scan records",
			slog.String("error", err.Error()),
			slog.String("table", d.Table))
		return nil, classify(d.Table, "list", err)
	}

	for _, rec := range records {
		d.Redact(rec)
	}

	log.Debug("records listed", slog.String("table", d.Table), slog.Int("count", len(records)))
	return records, nil
}

// ListBy implements store.EntityStore.ListBy
func (s *PostgresEntityStore) ListBy(
	ctx context.Context,
	d *domain.EntityDescriptor,
	column string,
	value int64,
) ([]domain.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !d.HasColumn(column) {
		return nil, undeclared(d, column)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 ORDER BY %s",
		quoteIdent(d.Table), quoteIdent(column), quoteIdent(d.PrimaryKey()))

	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		log.Error("failed to list related records",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.String("column", column))
		return nil, classify(d.Table, "list", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, classify(d.Table, "list", err)
	}
	for _, rec := range records {
		d.Redact(rec)
	}
	return records, nil
}

// GetByID implements store.EntityStore.GetByID
func (s *PostgresEntityStore) GetByID(
	ctx context.Context,
	d *domain.EntityDescriptor,
	id int64,
) (domain.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", quoteIdent(d.Table), quoteIdent(d.PrimaryKey()))

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		log.Error("failed to get record",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.Int64("id", id))
		return nil, classify(d.Table, "get", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		log.Error("failed to scan record",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.Int64("id", id))
		return nil, classify(d.Table, "get", err)
	}
	if len(records) == 0 {
		log.Debug("record not found", slog.String("table", d.Table), slog.Int64("id", id))
		return nil, store.ErrRecordNotFound
	}

	return d.Redact(records[0]), nil
}

// Create implements store.EntityStore.Create
// The row is inserted with RETURNING on the id column and then re-read, so the
// result reflects database defaults and triggers.
func (s *PostgresEntityStore) Create(
	ctx context.Context,
	d *domain.EntityDescriptor,
	fields []domain.Assignment,
) (domain.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(fields) == 0 {
		return nil, domain.NewValidationError("", "no fields to insert", nil)
	}

	columns := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		columns[i] = quoteIdent(f.Column)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = bindValue(f.Value)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoteIdent(d.Table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		quoteIdent(d.PrimaryKey()))

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		log.Warn("failed to insert record",
			slog.String("error", err.Error()),
			slog.String("table", d.Table))
		return nil, classify(d.Table, "create", err)
	}

	log.Info("record created", slog.String("table", d.Table), slog.Int64("id", id))
	return s.GetByID(ctx, d, id)
}

// Update implements store.EntityStore.Update
func (s *PostgresEntityStore) Update(
	ctx context.Context,
	d *domain.EntityDescriptor,
	id int64,
	fields []domain.Assignment,
) (domain.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(fields) == 0 {
		return nil, domain.NewValidationError("", "no fields to update", nil)
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = $%d", quoteIdent(f.Column), i+1)
		args = append(args, bindValue(f.Value))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		quoteIdent(d.Table),
		strings.Join(sets, ", "),
		quoteIdent(d.PrimaryKey()),
		len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Warn("failed to update record",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.Int64("id", id))
		return nil, classify(d.Table, "update", err)
	}
	if err := CheckRowsAffected(result, store.ErrRecordNotFound); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("record to update not found", slog.String("table", d.Table), slog.Int64("id", id))
			return nil, err
		}
		return nil, classify(d.Table, "update", err)
	}

	log.Info("record updated", slog.String("table", d.Table), slog.Int64("id", id))
	return s.GetByID(ctx, d, id)
}

// Delete implements store.EntityStore.Delete
func (s *PostgresEntityStore) Delete(ctx context.Context, d *domain.EntityDescriptor, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", quoteIdent(d.Table), quoteIdent(d.PrimaryKey()))

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Warn("failed to delete record",
			slog.String("error", err.Error()),
			slog.String("table", d.Table),
			slog.Int64("id", id))
		return classify(d.Table, "delete", err)
	}
	if err := CheckRowsAffected(result, store.ErrRecordNotFound); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return classify(d.Table, "delete", err)
	}

	log.Info("record deleted", slog.String("table", d.Table), slog.Int64("id", id))
	return nil
}

// scanRecords reads every row into a column-keyed record.
func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(domain.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// bindValue converts a decoded JSON value into a driver argument.
// Integral numbers become int64 so they bind to integer columns, and objects
// or arrays are sent as JSON text.
func bindValue(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return v
	}
}
