package auth

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenClaims is the identity assertion carried by a bearer token.
// ExpiresAt is always IssuedAt plus the issuer TTL.
type TokenClaims struct {
	SubjectID string
	Username  string
	CreatedAt time.Time
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type registerResponse struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type protectedResponse struct {
	Message string   `json:"message"`
	User    identity `json:"user"`
}
