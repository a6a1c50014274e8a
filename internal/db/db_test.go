package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("oracle"), "dsn", PoolConfig{})
	assert.Error(t, err)
}

func TestRunMigrations_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "auth.db"), PoolConfig{})
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(ctx, database, SQLite))
	require.NoError(t, RunMigrations(ctx, database, SQLite))

	var name string
	err = database.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "users", name)

	assert.Equal(t, 1, database.Stats().MaxOpenConnections)
}

func TestRunMigrations_UnsupportedDriver(t *testing.T) {
	assert.Error(t, RunMigrations(context.Background(), nil, Driver("oracle")))
}

func TestMigrationFilesEmbedded(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		entries, err := migrationFiles.ReadDir(dir)
		require.NoError(t, err)
		assert.NotEmpty(t, entries, dir)
	}
}
