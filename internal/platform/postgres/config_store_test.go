package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/phrazzld/totem-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configCols = []string{
	"id", "key", "value", "type", "description", "category", "editable", "created_at", "updated_at",
}

const configSelect = `SELECT id, key, value, type, description, category, editable, created_at, updated_at FROM system_config`

func TestConfigStore_ListAll(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)
	now := time.Now()

	mock.ExpectQuery(configSelect + ` ORDER BY category, key`).
		WillReturnRows(sqlmock.NewRows(configCols).
			AddRow(int64(1), "max_file_size", "10485760", "number", "Max upload", "files", true, now, now).
			AddRow(int64(2), "app_name", "TOTEM", "string", nil, "general", false, now, now))

	entries, err := s.List(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ConfigTypeNumber, entries[0].Type)
	assert.Equal(t, "Max upload", entries[0].Description)
	assert.Equal(t, "", entries[1].Description)
	assert.False(t, entries[1].Editable)
}

func TestConfigStore_ListByCategory(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)

	mock.ExpectQuery(configSelect + ` WHERE category = $1 ORDER BY category, key`).
		WithArgs("security").
		WillReturnRows(sqlmock.NewRows(configCols))

	entries, err := s.List(context.Background(), "security")

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConfigStore_GetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)

	mock.ExpectQuery(configSelect + ` WHERE key = $1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(configCols))

	_, err := s.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, store.ErrConfigNotFound)
}

func TestConfigStore_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)

	mock.ExpectQuery(`
		INSERT INTO system_config (key, value, type, description, category, editable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`).
		WithArgs("app_name", "X", "string", nil, "general", true).
		WillReturnError(newPgError("23505"))

	err := s.Create(context.Background(), &domain.ConfigEntry{
		Key: "app_name", RawValue: "X", Type: domain.ConfigTypeString,
		Category: "general", Editable: true,
	})

	assert.ErrorIs(t, err, store.ErrConfigExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestConfigStore_CreateSetsID(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)
	now := time.Now()

	mock.ExpectQuery(`
		INSERT INTO system_config (key, value, type, description, category, editable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`).
		WithArgs("kiosk_theme", `{"dark":true}`, "json", "Theme", "ui", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), now, now))

	entry := &domain.ConfigEntry{
		Key: "kiosk_theme", RawValue: `{"dark":true}`, Type: domain.ConfigTypeJSON,
		Description: "Theme", Category: "ui", Editable: true,
	}
	require.NoError(t, s.Create(context.Background(), entry))
	assert.Equal(t, int64(9), entry.ID)
	assert.Equal(t, now, entry.CreatedAt)
}

func TestConfigStore_UpdateValue(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)

	mock.ExpectExec(`UPDATE system_config SET value = $1, updated_at = NOW() WHERE key = $2`).
		WithArgs("7200", "session_timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE system_config SET value = $1, updated_at = NOW() WHERE key = $2`).
		WithArgs("1", "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.UpdateValue(context.Background(), "session_timeout", "7200"))
	assert.ErrorIs(t, s.UpdateValue(context.Background(), "nope", "1"), store.ErrConfigNotFound)
}

func TestConfigStore_DeleteStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)

	mock.ExpectExec(`DELETE FROM system_config WHERE key = $1`).
		WithArgs("x").
		WillReturnError(errors.New("timeout"))

	err := s.Delete(context.Background(), "x")

	var storeErr *store.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.False(t, store.IsNotFoundError(err))
}

func TestConfigStore_Categories(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)

	mock.ExpectQuery(`SELECT category, COUNT(*) FROM system_config GROUP BY category ORDER BY category`).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("files", int64(1)).
			AddRow("general", int64(2)))

	counts, err := s.Categories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{
		{Category: "files", Count: 1},
		{Category: "general", Count: 2},
	}, counts)
}

func TestConfigStore_DBAndWithTx(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresConfigStore(db, nil)
	assert.Same(t, db, s.DB())

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	assert.Same(t, db, s.WithTx(tx).DB())
	mock.ExpectRollback()
	require.NoError(t, tx.Rollback())
}
