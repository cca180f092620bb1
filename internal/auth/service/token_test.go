package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testAccount() *domain.Account {
	return &domain.Account{
		ID:       "acct-1",
		Username: "alice",
		Email:    "alice@example.com",
		Name:     "Alice",
		LastName: "Smith",
		Roles:    []string{"admin"},
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := newTokenService(t)
	acct := testAccount()

	t.Run("session token round-trips", func(t *testing.T) {
		token, err := svc.IssueSession(acct)
		require.NoError(t, err)

		claims, err := svc.Verify(token)
		require.NoError(t, err)
		require.Equal(t, acct.ID, claims.Subject)
		require.Equal(t, acct.Username, claims.Username)
		require.Equal(t, acct.Roles, claims.Roles)
		require.False(t, claims.Temp)

		require.NoError(t, svc.RequireSession(claims))
		require.ErrorIs(t, svc.RequireTemp(claims), domain.ErrWrongTokenType)
	})

	t.Run("temporary token round-trips", func(t *testing.T) {
		token, err := svc.IssueTemporary(acct)
		require.NoError(t, err)

		claims, err := svc.Verify(token)
		require.NoError(t, err)
		require.True(t, claims.Temp)

		require.NoError(t, svc.RequireTemp(claims))
		require.ErrorIs(t, svc.RequireSession(claims), domain.ErrWrongTokenType)

		// The continuation window is fixed, not the session lifetime.
		require.WithinDuration(t, time.Now().Add(jwtx.TemporaryTTL), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("custom session TTL is honoured", func(t *testing.T) {
		short := newTokenService(t)
		short.SessionTTL = time.Hour

		token, err := short.IssueSession(acct)
		require.NoError(t, err)

		claims, err := short.Verify(token)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	svc := newTokenService(t)
	acct := testAccount()

	t.Run("expired token", func(t *testing.T) {
		claims := jwtx.NewSessionClaims(jwtx.Subject{ID: acct.ID}, time.Hour, svc.Issuer, time.Now().Add(-2*time.Hour))
		token, err := svc.Signer.Sign(claims)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		require.ErrorIs(t, err, domain.ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("token signed by a different key", func(t *testing.T) {
		other := newTokenService(t)
		token, err := other.IssueSession(acct)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := jwtx.NewSessionClaims(jwtx.Subject{ID: acct.ID}, time.Hour, "someone-else", time.Now())
		token, err := svc.Signer.Sign(claims)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}
