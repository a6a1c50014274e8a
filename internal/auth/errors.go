package auth

import "errors"

var (
	ErrValidation         = errors.New("invalid request")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrHashing            = errors.New("password hashing failed")
	ErrStoreUnavailable   = errors.New("user store unavailable")
	ErrUserNotFound       = errors.New("user not found")
)

// Token verification errors. Callers outside this package only ever see
// ErrUnauthorized; these exist for logs and tests.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrInvalidClaims         = errors.New("token claims are inconsistent")
)
