package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = time.Hour

var signingMethod = jwt.SigningMethodHS256

// Issuer signs and verifies self-contained HS256 bearer tokens. It is the
// only holder of the signing key.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type IssuerOption func(*Issuer)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(signingKey string, opts ...IssuerOption) (*Issuer, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}

	issuer := &Issuer{
		key: []byte(signingKey),
		ttl: TokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}

	return issuer, nil
}

type tokenPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	jwt.RegisteredClaims
}

// Claims builds the claims for user issued at issuedAt, truncated to the
// second precision tokens carry.
func (i *Issuer) Claims(user User, issuedAt time.Time) TokenClaims {
	iat := issuedAt.UTC().Truncate(time.Second)
	return TokenClaims{
		SubjectID: user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt.UTC(),
		IssuedAt:  iat,
		ExpiresAt: iat.Add(i.ttl),
	}
}

// Now returns the issuer's current time.
func (i *Issuer) Now() time.Time {
	return i.now()
}

// Issue signs claims. Times must be in UTC, since Verify returns them in
// UTC and the round trip has to reproduce the claims exactly.
func (i *Issuer) Issue(claims TokenClaims) (string, error) {
	if claims.SubjectID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	if !isUTC(claims.IssuedAt) || !isUTC(claims.ExpiresAt) || !isUTC(claims.CreatedAt) {
		return "", fmt.Errorf("%w: times must be in UTC", ErrInvalidClaims)
	}
	if !claims.IssuedAt.Equal(claims.IssuedAt.Truncate(time.Second)) {
		return "", fmt.Errorf("%w: issued_at has sub-second precision", ErrInvalidClaims)
	}
	if !claims.ExpiresAt.Equal(claims.IssuedAt.Add(i.ttl)) {
		return "", fmt.Errorf("%w: expires_at must be issued_at + %s", ErrInvalidClaims, i.ttl)
	}

	payload := tokenPayload{
		ID:        claims.SubjectID,
		Username:  claims.Username,
		CreatedAt: claims.CreatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, payload).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return signed, nil
}

// Verify checks the integrity tag first, then expiry. A token verified at
// exactly its expiry instant is still valid.
func (i *Issuer) Verify(token string) (TokenClaims, error) {
	payload := &tokenPayload{}
	_, err := jwt.ParseWithClaims(token, payload, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return TokenClaims{}, mapJWTError(err)
	}

	if payload.ID == "" || payload.IssuedAt == nil || payload.ExpiresAt == nil {
		return TokenClaims{}, fmt.Errorf("%w: missing required claim", ErrTokenMalformed)
	}

	claims := TokenClaims{
		SubjectID: payload.ID,
		Username:  payload.Username,
		CreatedAt: payload.CreatedAt.UTC(),
		IssuedAt:  payload.IssuedAt.Time.UTC(),
		ExpiresAt: payload.ExpiresAt.Time.UTC(),
	}
	if !claims.ExpiresAt.Equal(claims.IssuedAt.Add(i.ttl)) {
		return TokenClaims{}, fmt.Errorf("%w: unexpected lifetime", ErrTokenMalformed)
	}

	if i.now().After(claims.ExpiresAt) {
		return TokenClaims{}, ErrTokenExpired
	}

	return claims, nil
}

func isUTC(t time.Time) bool {
	return t.Location() == time.UTC
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
}
