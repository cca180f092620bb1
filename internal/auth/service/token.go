package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/pkg/jwtx"
)

// TokenService issues and verifies the two token kinds. A session token is
// the real thing; a temporary token only proves the password stage passed
// and is accepted solely by the 2FA continuation and recovery endpoints.
type TokenService struct {
	Signer     *jwtx.Signer
	Verifier   *jwtx.Verifier
	Issuer     string
	SessionTTL time.Duration // 0 means jwtx.DefaultSessionTTL
}

func (s *TokenService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func subjectFor(a *domain.Account) jwtx.Subject {
	return jwtx.Subject{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Name:     a.Name,
		LastName: a.LastName,
		Roles:    a.Roles,
	}
}

// IssueSession mints a full session token for the account.
func (s *TokenService) IssueSession(a *domain.Account) (string, error) {
	claims := jwtx.NewSessionClaims(subjectFor(a), s.sessionTTL(), s.Issuer, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// IssueTemporary mints a 10-minute continuation token for the account.
func (s *TokenService) IssueTemporary(a *domain.Account) (string, error) {
	claims := jwtx.NewTemporaryClaims(subjectFor(a), s.Issuer, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign temporary token: %w", err)
	}
	return token, nil
}

// Verify validates a token string and returns its claims. Expired tokens map
// to domain.ErrTokenExpired; everything else wrong with the token collapses
// into domain.ErrTokenInvalid so callers can't probe for signature vs format.
func (s *TokenService) Verify(token string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return jwtx.Claims{}, domain.ErrTokenExpired
		}
		return jwtx.Claims{}, domain.ErrTokenInvalid
	}
	return claims, nil
}

// RequireTemp ensures the claims came from a temporary token.
func (s *TokenService) RequireTemp(c jwtx.Claims) error {
	if !c.Temp {
		return domain.ErrWrongTokenType
	}
	return nil
}

// RequireSession ensures the claims came from a full session token.
func (s *TokenService) RequireSession(c jwtx.Claims) error {
	if c.Temp {
		return domain.ErrWrongTokenType
	}
	return nil
}
