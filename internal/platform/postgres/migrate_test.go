package postgres_test

import (
	"context"
	"testing"

	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	files, err := postgres.MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_base_schema.sql", "00002_system_config.sql"}, files)
}

func TestMigrate_UnknownCommand(t *testing.T) {
	db, _ := newMockDB(t)
	err := postgres.Migrate(context.Background(), db, "sideways", nil)
	assert.ErrorContains(t, err, "unknown migration command")
}
