// Package auth reads the access tokens the backend issues.
//
// The client never holds the signing key, so tokens are parsed without
// signature verification: the claims are only used to decide whether a
// stored token is worth presenting or should be refreshed first. The backend
// remains the authority on validity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token cannot be parsed as a JWT.
var ErrMalformed = errors.New("auth: malformed token")

// Claims holds the payload fields simplejwt puts in an access token.
type Claims struct {
	UserID    interface{} `json:"user_id"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// Leeway absorbs clock skew between the client and the backend.
var Leeway = 30 * time.Second

// Inspect parses t without verifying the signature.
func Inspect(t string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim, or the zero time when there is none.
func (c *Claims) ExpiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Expired reports whether the exp claim lies before now, allowing Leeway.
// Tokens without exp never expire locally.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.ExpiresAt()
	return !exp.IsZero() && now.After(exp.Add(Leeway))
}

// Expired reports whether t is expired. Malformed tokens return ErrMalformed.
func Expired(t string, now time.Time) (bool, error) {
	c, err := Inspect(t)
	if err != nil {
		return false, err
	}
	return c.Expired(now), nil
}
