// Package security reads identity claims from tokens issued by the
// authoritative backend.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or missing claims.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims holds the claims the gateway reads from a backend JWT: the
// subject (voter or admin id), role, and expiry.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// ClaimsFromToken extracts subject, role, and expiry from a backend-issued
// JWT. The signature is not verified here: the backend minted and will verify
// the token on every call; the gateway only needs the claims to seed its local
// session state, exactly as the voting-center front end reads the payload.
func ClaimsFromToken(token string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return &TokenClaims{
		Subject:   sub,
		Role:      role,
		ExpiresAt: exp.Time.UTC(),
	}, nil
}
