package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
)

// PostgresActivityStore implements store.ActivityStore on the activity_log table.
type PostgresActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityStore creates a new PostgreSQL implementation of the ActivityStore interface.
func NewPostgresActivityStore(db store.DBTX, logger *slog.Logger) *PostgresActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// Record implements store.ActivityStore.Record
func (s *PostgresActivityStore) Record(ctx context.Context, entry *domain.ActivityEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var details any
	if len(entry.Details) > 0 {
		details = string(entry.Details)
	}

	query := `
		INSERT INTO activity_log (user_id, action, table_name, record_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.Action,
		entry.TableName,
		entry.RecordID,
		details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		log.Error("failed to record activity",
			slog.String("error", err.Error()),
			slog.String("action", entry.Action),
			slog.String("table", entry.TableName))
		return classify("activity_log", "record", err)
	}
	return nil
}
