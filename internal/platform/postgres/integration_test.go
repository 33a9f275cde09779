//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/phrazzld/totem-api/internal/store"
	"github.com/phrazzld/totem-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(t *testing.T, name string) *domain.EntityDescriptor {
	t.Helper()
	reg, err := domain.NewKioskRegistry()
	require.NoError(t, err)
	d, ok := reg.Lookup(name)
	require.True(t, ok, "missing descriptor %s", name)
	return d
}

func TestIntegration_EntityStoreLifecycle(t *testing.T) {
	db := testdb.Open(t)
	regions := descriptor(t, "regions")
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresEntityStore(tx, nil)

		created, err := s.Create(ctx, regions, []domain.Assignment{
			{Column: "name", Value: "Integration North"},
			{Column: "active", Value: true},
		})
		require.NoError(t, err)
		id, ok := created["id"].(int64)
		require.True(t, ok, "id should be int64, got %T", created["id"])
		assert.Equal(t, "Integration North", created["name"])

		updated, err := s.Update(ctx, regions, id, []domain.Assignment{{Column: "active", Value: false}})
		require.NoError(t, err)
		assert.Equal(t, false, updated["active"])

		require.NoError(t, s.Delete(ctx, regions, id))

		_, err = s.GetByID(ctx, regions, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestIntegration_EntityStoreDuplicate(t *testing.T) {
	db := testdb.Open(t)
	regions := descriptor(t, "regions")
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresEntityStore(tx, nil)
		fields := []domain.Assignment{{Column: "name", Value: "Integration Dup"}}

		_, err := s.Create(ctx, regions, fields)
		require.NoError(t, err)

		_, err = s.Create(ctx, regions, fields)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestIntegration_EntityStoreForeignKey(t *testing.T) {
	db := testdb.Open(t)
	totems := descriptor(t, "totems")
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresEntityStore(tx, nil)

		_, err := s.Create(ctx, totems, []domain.Assignment{
			{Column: "name", Value: "Orphan"},
			{Column: "region_id", Value: float64(987654321)},
		})
		assert.ErrorIs(t, err, store.ErrConstraint)
	})
}

func TestIntegration_ConfigStore(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresConfigStore(db, nil).WithTx(tx)

		entry := &domain.ConfigEntry{
			Key:      "integration_interval",
			RawValue: "15",
			Type:     domain.ConfigTypeNumber,
			Category: "display",
			Editable: true,
		}
		require.NoError(t, s.Create(ctx, entry))
		assert.ErrorIs(t, s.Create(ctx, entry), store.ErrDuplicate)
	})

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresConfigStore(db, nil).WithTx(tx)

		require.NoError(t, s.Create(ctx, &domain.ConfigEntry{
			Key: "integration_flag", RawValue: "true", Type: domain.ConfigTypeBoolean, Category: "general",
			Editable: true,
		}))
		require.NoError(t, s.UpdateValue(ctx, "integration_flag", "false"))

		got, err := s.Get(ctx, "integration_flag")
		require.NoError(t, err)
		v, _ := got.Value().Bool()
		assert.False(t, v)

		assert.ErrorIs(t, s.UpdateValue(ctx, "integration_missing", "x"), store.ErrNotFound)
	})
}

func TestIntegration_UserStore(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresUserStore(tx, 4, nil)

		user, err := domain.NewUser("integration", "Integration@Example.com", "integration-pass")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, user))
		assert.NotZero(t, user.ID)

		got, err := s.GetByEmail(ctx, "integration@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NotEmpty(t, got.HashedPassword)
		assert.NotEqual(t, "integration-pass", got.HashedPassword)

		require.NoError(t, s.TouchLastLogin(ctx, user.ID))
	})
}
