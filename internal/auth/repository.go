package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserStore persists user records. Username uniqueness is the store's
// responsibility: Create must fail with ErrDuplicateUsername when the
// username is already taken, including by a concurrent Create.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, username string, passwordHash []byte) (User, error)
}

type Repository struct {
	db      *sql.DB
	queries *dialectQueries
	now     func() time.Time
}

func NewRepository(db *sql.DB, dialect Dialect) (*Repository, error) {
	queries, err := queriesFor(dialect)
	if err != nil {
		return nil, err
	}

	return &Repository{db: db, queries: queries, now: time.Now}, nil
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	var user User
	var createdAt any
	err := r.db.QueryRowContext(ctx, r.queries.selectUserByName, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: query user by username: %w", ErrStoreUnavailable, err)
	}

	user.CreatedAt, err = decodeTime(createdAt)
	if err != nil {
		return User{}, fmt.Errorf("%w: scan user: %w", ErrStoreUnavailable, err)
	}

	return user, nil
}

func (r *Repository) Create(ctx context.Context, username string, passwordHash []byte) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	user := User{
		ID:           id.String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC().Truncate(time.Millisecond),
	}

	_, err = r.db.ExecContext(ctx, r.queries.insertUser,
		user.ID, user.Username, user.PasswordHash, r.queries.encodeTime(user.CreatedAt))
	if err != nil {
		if r.queries.isUniqueViolation(err) {
			return User{}, ErrDuplicateUsername
		}
		return User{}, fmt.Errorf("%w: insert user: %w", ErrStoreUnavailable, err)
	}

	return user, nil
}

var _ UserStore = (*Repository)(nil)
