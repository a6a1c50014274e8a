package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// RunMigrations applies the embedded schema for driver. goose keeps its
// settings in package state, so migrations run once at startup.
func RunMigrations(ctx context.Context, database *sql.DB, driver Driver) error {
	dialect, dir, err := migrationSource(driver)
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", dir, err)
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, database, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

func migrationSource(driver Driver) (string, string, error) {
	switch driver {
	case Postgres:
		return "pgx", "migrations/postgres", nil
	case SQLite:
		return "sqlite3", "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}
