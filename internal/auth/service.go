package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"credential-issuer/internal/observability"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

type Service struct {
	store  UserStore
	hasher *Hasher
	issuer *Issuer
	logger *observability.Logger
}

func NewService(store UserStore, hasher *Hasher, issuer *Issuer, logger *observability.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		issuer: issuer,
		logger: logger,
	}
}

// Register hashes the password and creates the user. There is no existence
// pre-check; the store's uniqueness constraint decides duplicates.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return User{}, err
	}
	if err := validatePassword(password); err != nil {
		return User{}, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.Create(ctx, username, hash)
	if err != nil {
		return User{}, err
	}

	return user, nil
}

// Login returns a signed token. Unknown users and wrong passwords are
// indistinguishable: both cost one bcrypt comparison and both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return "", err
	}
	found := err == nil

	match, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !found || !match {
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(s.issuer.Claims(user, s.issuer.Now()))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// Authorize verifies a bearer token. Every verification failure collapses
// to ErrUnauthorized; the reason is only logged.
func (s *Service) Authorize(ctx context.Context, token string) (TokenClaims, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		s.logger.Warn("authorize_rejected", map[string]any{"reason": rejectReason(err)})
		return TokenClaims{}, ErrUnauthorized
	}

	return claims, nil
}

// EnsureUser registers username unless it already exists.
func (s *Service) EnsureUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return errors.New("SEED_USERNAME and SEED_PASSWORD are required together")
	}

	user, err := s.Register(ctx, username, password)
	if errors.Is(err, ErrDuplicateUsername) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	s.logger.Info("seed_user_created", map[string]any{"user_id": user.ID, "username": user.Username})
	return nil
}

func normalizeUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernameRegex.MatchString(username) {
		return "", fmt.Errorf("%w: username format is invalid", ErrValidation)
	}
	return username, nil
}

func validatePassword(password string) error {
	if password == "" || len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be 1 to %d bytes", ErrValidation, maxPasswordBytes)
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
