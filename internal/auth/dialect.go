package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect names the SQL flavor a Repository speaks.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const pgUniqueViolation = "23505"

type dialectQueries struct {
	insertUser        string
	selectUserByName  string
	encodeTime        func(time.Time) any
	isUniqueViolation func(error) bool
}

func queriesFor(d Dialect) (*dialectQueries, error) {
	switch d {
	case Postgres:
		return &dialectQueries{
			insertUser: `
				INSERT INTO users (id, username, password_hash, created_at)
				VALUES ($1, $2, $3, $4)
			`,
			selectUserByName: `
				SELECT id, username, password_hash, created_at
				FROM users
				WHERE username = $1
			`,
			encodeTime:        func(t time.Time) any { return t },
			isUniqueViolation: isPostgresUniqueViolation,
		}, nil
	case SQLite:
		return &dialectQueries{
			insertUser: `
				INSERT INTO users (id, username, password_hash, created_at)
				VALUES (?1, ?2, ?3, ?4)
			`,
			selectUserByName: `
				SELECT id, username, password_hash, created_at
				FROM users
				WHERE username = ?1
			`,
			encodeTime:        func(t time.Time) any { return t.UnixMilli() },
			isUniqueViolation: isSQLiteUniqueViolation,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// decodeTime accepts what either driver hands back for created_at:
// a time.Time from pgx or unix milliseconds from SQLite.
func decodeTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", value)
	}
}
