package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

// Open connects and pings. SQLite gets a single connection since it
// serializes writers anyway.
func Open(ctx context.Context, driver Driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	var driverName string
	switch driver {
	case Postgres:
		driverName = "pgx"
	case SQLite:
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	database, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == SQLite {
		database.SetMaxOpenConns(1)
		database.SetMaxIdleConns(1)
	} else {
		database.SetMaxOpenConns(pool.MaxOpenConns)
		database.SetMaxIdleConns(pool.MaxIdleConns)
		database.SetConnMaxLifetime(pool.ConnMaxLifetime)
		database.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if driver == SQLite {
		for _, pragma := range sqlitePragmas {
			if _, err := database.ExecContext(ctx, pragma); err != nil {
				_ = database.Close()
				return nil, fmt.Errorf("set pragma: %w", err)
			}
		}
	}

	return database, nil
}
