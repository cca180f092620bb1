package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Session lifetime can be overridden per-service;
// the temporary lifetime is deliberately fixed and short to bound the window
// between password success and second-factor completion.
const (
	// DefaultSessionTTL is the default lifetime for full session tokens.
	DefaultSessionTTL = 7 * 24 * time.Hour

	// TemporaryTTL is the lifetime for temporary (2FA continuation) tokens.
	TemporaryTTL = 10 * time.Minute
)

// Claims are the token claims shared by session and temporary tokens. The two
// kinds are the same shape distinguished by the Temp flag, so verification can
// branch exhaustively on kind.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated account
	Username string `json:"username,omitempty"`

	// Email address of the account
	Email string `json:"email,omitempty"`

	// Name is the display name, LastName the family name
	Name     string `json:"name,omitempty"`
	LastName string `json:"last_name,omitempty"`

	// Roles assigned to the account ("admin", "manager", ...)
	Roles []string `json:"roles,omitempty"`

	// Temp marks a temporary token: proof of password-stage success only,
	// accepted solely by 2FA continuation and recovery endpoints.
	Temp bool `json:"temp,omitempty"`
}

// Subject identifies an account for token issuance.
type Subject struct {
	ID       string
	Username string
	Email    string
	Name     string
	LastName string
	Roles    []string
}

// NewSessionClaims builds claims for a full session token.
func NewSessionClaims(sub Subject, ttl time.Duration, issuer string, now time.Time) Claims {
	return newClaims(sub, ttl, issuer, now, false)
}

// NewTemporaryClaims builds claims for a short-lived 2FA continuation token.
// The lifetime is fixed at TemporaryTTL regardless of session configuration.
func NewTemporaryClaims(sub Subject, issuer string, now time.Time) Claims {
	return newClaims(sub, TemporaryTTL, issuer, now, true)
}

func newClaims(sub Subject, ttl time.Duration, issuer string, now time.Time, temp bool) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: sub.Username,
		Email:    sub.Email,
		Name:     sub.Name,
		LastName: sub.LastName,
		Roles:    sub.Roles,
		Temp:     temp,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// HasRole reports whether the claims carry the given role name.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
