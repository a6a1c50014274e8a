package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credential-issuer/internal/db"
)

func newSQLiteRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, db.SQLite, filepath.Join(t.TempDir(), "users.db"), db.PoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(ctx, database, db.SQLite))

	repo, err := NewRepository(database, SQLite)
	require.NoError(t, err)
	return repo
}

func newPostgresMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	repo, err := NewRepository(database, Postgres)
	require.NoError(t, err)
	return repo, mock
}

func TestRepository_SQLiteCreateAndFind(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", []byte("hash"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, found)
}

func TestRepository_SQLiteDuplicateUsername(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", []byte("hash-1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, "alice", []byte("hash-2"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash-1"), found.PasswordHash)
}

func TestRepository_SQLiteNotFound(t *testing.T) {
	repo := newSQLiteRepository(t)

	_, err := repo.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_SQLiteConcurrentCreateSameUsername(t *testing.T) {
	repo := newSQLiteRepository(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.Create(context.Background(), "alice", []byte("hash"))
		}()
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrDuplicateUsername):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)
}

func TestRepository_PostgresCreate(t *testing.T) {
	repo, mock := newPostgresMockRepository(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 678999000, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO users \(id, username, password_hash, created_at\)\s+VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(sqlmock.AnyArg(), "alice", []byte("hash"), fixed.Truncate(time.Millisecond)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.Create(context.Background(), "alice", []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, fixed.Truncate(time.Millisecond), user.CreatedAt)
	assert.Len(t, user.ID, 36)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PostgresCreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, ErrDuplicateUsername},
		{"other constraint", &pgconn.PgError{Code: "23502"}, ErrStoreUnavailable},
		{"connection failure", errors.New("connection refused"), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newPostgresMockRepository(t)
			mock.ExpectExec(`INSERT INTO users`).WillReturnError(tt.dbErr)

			_, err := repo.Create(context.Background(), "alice", []byte("hash"))
			assert.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_PostgresFindByUsername(t *testing.T) {
	repo, mock := newPostgresMockRepository(t)
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
		AddRow("u-1", "alice", []byte("hash"), createdAt)
	mock.ExpectQuery(`SELECT id, username, password_hash, created_at\s+FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u-1", Username: "alice", PasswordHash: []byte("hash"), CreatedAt: createdAt}, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PostgresFindByUsernameErrors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"no rows", sql.ErrNoRows, ErrUserNotFound},
		{"driver error", errors.New("db down"), ErrStoreUnavailable},
		{"cancelled", context.Canceled, ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newPostgresMockRepository(t)
			mock.ExpectQuery(`SELECT id, username`).WithArgs("alice").WillReturnError(tt.dbErr)

			_, err := repo.FindByUsername(context.Background(), "alice")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewRepository_UnknownDialect(t *testing.T) {
	_, err := NewRepository(nil, Dialect("oracle"))
	assert.Error(t, err)
}
