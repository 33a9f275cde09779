package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
)

const configColumns = `id, key, value, type, description, category, editable, created_at, updated_at`

// PostgresConfigStore implements the store.ConfigStore interface
// on the system_config table.
type PostgresConfigStore struct {
	db     store.DBTX
	pool   *sql.DB
	logger *slog.Logger
}

// NewPostgresConfigStore creates a new PostgreSQL implementation of the ConfigStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresConfigStore(db *sql.DB, logger *slog.Logger) *PostgresConfigStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresConfigStore{
		db:     db,
		pool:   db,
		logger: logger.With(slog.String("component", "config_store")),
	}
}

// Ensure PostgresConfigStore implements store.ConfigStore interface
var _ store.ConfigStore = (*PostgresConfigStore)(nil)

// WithTx implements store.ConfigStore.WithTx
func (s *PostgresConfigStore) WithTx(tx *sql.Tx) store.ConfigStore {
	return &PostgresConfigStore{db: tx, pool: s.pool, logger: s.logger}
}

// DB implements store.ConfigStore.DB
func (s *PostgresConfigStore) DB() *sql.DB {
	return s.pool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfigEntry(row rowScanner) (*domain.ConfigEntry, error) {
	var (
		entry       domain.ConfigEntry
		typ         string
		description sql.NullString
	)
	err := row.Scan(
		&entry.ID,
		&entry.Key,
		&entry.RawValue,
		&typ,
		&description,
		&entry.Category,
		&entry.Editable,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Type = domain.ConfigType(typ)
	entry.Description = description.String
	return &entry, nil
}

// List implements store.ConfigStore.List
func (s *PostgresConfigStore) List(ctx context.Context, category string) ([]*domain.ConfigEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + configColumns + ` FROM system_config`
	var args []any
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list configuration",
			slog.String("error", err.Error()),
			slog.String("category", category))
		return nil, classify("system_config", "list", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*domain.ConfigEntry, 0)
	for rows.Next() {
		entry, err := scanConfigEntry(rows)
		if err != nil {
			log.Error("failed to scan configuration entry", slog.String("error", err.Error()))
			return nil, classify("system_config", "list", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("system_config", "list", err)
	}

	return entries, nil
}

// Get implements store.ConfigStore.Get
func (s *PostgresConfigStore) Get(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + configColumns + ` FROM system_config WHERE key = $1`

	entry, err := scanConfigEntry(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("configuration key not found", slog.String("key", key))
			return nil, store.ErrConfigNotFound
		}
		log.Error("failed to get configuration",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return nil, classify("system_config", "get", err)
	}
	return entry, nil
}

// Create implements store.ConfigStore.Create
func (s *PostgresConfigStore) Create(ctx context.Context, entry *domain.ConfigEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO system_config (key, value, type, description, category, editable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.Key,
		entry.RawValue,
		string(entry.Type),
		sql.NullString{String: entry.Description, Valid: entry.Description != ""},
		entry.Category,
		entry.Editable,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("configuration key already exists", slog.String("key", entry.Key))
			return store.ErrConfigExists
		}
		log.Error("failed to create configuration",
			slog.String("error", err.Error()),
			slog.String("key", entry.Key))
		return classify("system_config", "create", err)
	}

	log.Info("configuration created",
		slog.String("key", entry.Key),
		slog.String("category", entry.Category))
	return nil
}

// UpdateValue implements store.ConfigStore.UpdateValue
func (s *PostgresConfigStore) UpdateValue(ctx context.Context, key, raw string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE system_config SET value = $1, updated_at = NOW() WHERE key = $2`,
		raw, key)
	if err != nil {
		log.Error("failed to update configuration",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return classify("system_config", "update", err)
	}
	if err := CheckRowsAffected(result, store.ErrConfigNotFound); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return classify("system_config", "update", err)
	}

	log.Debug("configuration updated", slog.String("key", key))
	return nil
}

// Delete implements store.ConfigStore.Delete
func (s *PostgresConfigStore) Delete(ctx context.Context, key string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM system_config WHERE key = $1`, key)
	if err != nil {
		log.Error("failed to delete configuration",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return classify("system_config", "delete", err)
	}
	if err := CheckRowsAffected(result, store.ErrConfigNotFound); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return classify("system_config", "delete", err)
	}

	log.Info("configuration deleted", slog.String("key", key))
	return nil
}

// Categories implements store.ConfigStore.Categories
func (s *PostgresConfigStore) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM system_config GROUP BY category ORDER BY category`)
	if err != nil {
		log.Error("failed to list configuration categories", slog.String("error", err.Error()))
		return nil, classify("system_config", "categories", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make([]domain.CategoryCount, 0)
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, classify("system_config", "categories", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("system_config", "categories", err)
	}
	return counts, nil
}
