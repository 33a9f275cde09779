package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStore_Record(t *testing.T) {
	db, mock := newMockDB(t)
	s := postgres.NewPostgresActivityStore(db, nil)
	now := time.Now()
	uid := int64(3)

	mock.ExpectQuery(`
		INSERT INTO activity_log (user_id, action, table_name, record_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`).
		WithArgs(int64(3), "create", "regions", "7", `{"name":"North"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	entry := &domain.ActivityEntry{
		UserID:    &uid,
		Action:    domain.ActionCreate,
		TableName: "regions",
		RecordID:  "7",
		Details:   json.RawMessage(`{"name":"North"}`),
	}
	require.NoError(t, s.Record(context.Background(), entry))
	assert.Equal(t, int64(11), entry.ID)
}
