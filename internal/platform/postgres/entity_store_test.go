package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/phrazzld/totem-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDB creates a sqlmock database that matches SQL text exactly.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func regionsDescriptor() *domain.EntityDescriptor {
	return &domain.EntityDescriptor{
		Name:           "regions",
		Table:          "regions",
		AllowedColumns: []string{"name", "description", "active"},
		Aliases:        []domain.FieldAlias{{From: "nombre", To: "name"}},
	}
}

func totemsDescriptor() *domain.EntityDescriptor {
	return &domain.EntityDescriptor{
		Name:           "totems",
		Table:          "totems",
		AllowedColumns: []string{"name", "site_password"},
		HiddenColumns:  []string{"site_password"},
	}
}

func TestEntityStore_List(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectQuery(`SELECT * FROM "totems" ORDER BY "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "site_password"}).
			AddRow(int64(1), "Lobby", "secret").
			AddRow(int64(2), []byte("Hall"), "secret2"))

	records, err := s.List(context.Background(), totemsDescriptor())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.Record{"id": int64(1), "name": "Lobby"}, records[0])
	assert.Equal(t, "Hall", records[1]["name"], "byte slices are returned as strings")
	assert.NotContains(t, records[1], "site_password")
}

func TestEntityStore_ListEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectQuery(`SELECT * FROM "regions" ORDER BY "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	records, err := s.List(context.Background(), regionsDescriptor())

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestEntityStore_ListStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectQuery(`SELECT * FROM "regions" ORDER BY "id"`).
		WillReturnError(errors.New("connection refused"))

	_, err := s.List(context.Background(), regionsDescriptor())

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "regions", storeErr.Entity)
	assert.Equal(t, "list", storeErr.Operation)
}

func TestEntityStore_ListBy(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)
	d := &domain.EntityDescriptor{
		Name:           "user_chats",
		Table:          "user_chats",
		AllowedColumns: []string{"totem_id", "question"},
		HiddenColumns:  []string{"ip_address"},
	}

	mock.ExpectQuery(`SELECT * FROM "user_chats" WHERE "totem_id" = $1 ORDER BY "id"`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "totem_id", "question", "ip_address"}).
			AddRow(int64(3), int64(7), "hola?", "10.0.0.1"))

	records, err := s.ListBy(context.Background(), d, "totem_id", 7)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Record{"id": int64(3), "totem_id": int64(7), "question": "hola?"}, records[0])
}

func TestEntityStore_ListByUndeclaredColumn(t *testing.T) {
	db, _ := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	_, err := s.ListBy(context.Background(), regionsDescriptor(), `name" OR 1=1 --`, 1)

	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
}

func TestEntityStore_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectQuery(`SELECT * FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.GetByID(context.Background(), regionsDescriptor(), 42)

	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestEntityStore_GetByIDCustomIDColumn(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)
	d := &domain.EntityDescriptor{
		Name: "legacy", Table: "legacy_items", IDColumn: "item_id",
		AllowedColumns: []string{"label"},
	}

	mock.ExpectQuery(`SELECT * FROM "legacy_items" WHERE "item_id" = $1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "label"}).AddRow(int64(3), "x"))

	rec, err := s.GetByID(context.Background(), d, 3)

	require.NoError(t, err)
	assert.Equal(t, "x", rec["label"])
}

// Values only ever reach the database as bound parameters; identifiers come
// from the descriptor, quoted.
func TestEntityStore_CreateBindsValues(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)
	d := regionsDescriptor()

	hostile := "x'); DROP TABLE regions; --"
	fields, err := d.Normalize(map[string]any{"nombre": hostile, "active": true, "evil; DROP": 1}, false)
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "regions" ("name", "active") VALUES ($1, $2) RETURNING "id"`).
		WithArgs(hostile, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`SELECT * FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}).AddRow(int64(7), hostile, true))

	rec, err := s.Create(context.Background(), d, fields)

	require.NoError(t, err)
	assert.Equal(t, int64(7), rec["id"])
	assert.Equal(t, hostile, rec["name"])
}

func TestEntityStore_CreateConvertsJSONNumbers(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)
	d := &domain.EntityDescriptor{
		Name: "multimedia", Table: "multimedia",
		AllowedColumns: []string{"sort_order", "totem_id", "title", "meta"},
	}
	fields := []domain.Assignment{
		{Column: "sort_order", Value: float64(3)},
		{Column: "totem_id", Value: json.Number("9007199254740993")},
		{Column: "title", Value: nil},
		{Column: "meta", Value: map[string]any{"k": "v"}},
	}

	mock.ExpectQuery(`INSERT INTO "multimedia" ("sort_order", "totem_id", "title", "meta") ` +
		`VALUES ($1, $2, $3, $4) RETURNING "id"`).
		WithArgs(int64(3), int64(9007199254740993), nil, `{"k":"v"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT * FROM "multimedia" WHERE "id" = $1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_order"}).AddRow(int64(1), int64(3)))

	_, err := s.Create(context.Background(), d, fields)
	require.NoError(t, err)
}

func TestEntityStore_CreateEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	_, err := s.Create(context.Background(), regionsDescriptor(), nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "no fields to insert")
}

func TestEntityStore_CreateConstraintErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		target error
	}{
		{"unique", "23505", store.ErrDuplicate},
		{"foreign key", "23503", store.ErrConstraint},
		{"check", "23514", store.ErrConstraint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			s := postgres.NewPostgresEntityStore(db, nil)

			mock.ExpectQuery(`INSERT INTO "regions" ("name") VALUES ($1) RETURNING "id"`).
				WithArgs("North").
				WillReturnError(newPgError(tt.code))

			_, err := s.Create(context.Background(), regionsDescriptor(),
				[]domain.Assignment{{Column: "name", Value: "North"}})

			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestEntityStore_Update(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectExec(`UPDATE "regions" SET "name" = $1, "active" = $2 WHERE "id" = $3`).
		WithArgs("South", false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT * FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}).AddRow(int64(5), "South", false))

	rec, err := s.Update(context.Background(), regionsDescriptor(), 5, []domain.Assignment{
		{Column: "name", Value: "South"},
		{Column: "active", Value: false},
	})

	require.NoError(t, err)
	assert.Equal(t, false, rec["active"])
}

func TestEntityStore_UpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectExec(`UPDATE "regions" SET "active" = $1 WHERE "id" = $2`).
		WithArgs(true, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.Update(context.Background(), regionsDescriptor(), 99,
		[]domain.Assignment{{Column: "active", Value: true}})

	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestEntityStore_UpdateEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	_, err := s.Update(context.Background(), regionsDescriptor(), 1, []domain.Assignment{})

	assert.EqualError(t, err, "no fields to update")
}

// Deleting the same id twice succeeds once, then reports not found.
func TestEntityStore_DeleteTwice(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectExec(`DELETE FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), regionsDescriptor(), 4))
	assert.ErrorIs(t, s.Delete(context.Background(), regionsDescriptor(), 4), store.ErrRecordNotFound)
}

func TestEntityStore_DeleteReferenced(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectExec(`DELETE FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(4)).
		WillReturnError(newPgError("23503"))

	err := s.Delete(context.Background(), regionsDescriptor(), 4)

	assert.ErrorIs(t, err, store.ErrConstraint)
}

func TestEntityStore_WithTx(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresEntityStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "regions" WHERE "id" = $1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).Delete(ctx, regionsDescriptor(), 1)
	})

	require.NoError(t, err)
}
