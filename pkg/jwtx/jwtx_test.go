package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) *jwtx.Signer {
	t.Helper()

	pemKey, err := jwtx.GenerateKeyPEM()
	require.NoError(t, err)

	signer, err := jwtx.NewSigner(pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	return signer
}

func subject() jwtx.Subject {
	return jwtx.Subject{
		ID:       "01J0000000000000000000TEST",
		Username: "admin",
		Email:    "admin@example.com",
		Name:     "Admin",
		LastName: "User",
		Roles:    []string{"admin"},
	}
}

func TestSignAndVerifySession(t *testing.T) {
	t.Parallel()

	signer := newSigner(t)
	verifier := jwtx.NewVerifier(signer.PublicKey(), "concierge")

	claims := jwtx.NewSessionClaims(subject(), time.Hour, "concierge", time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "admin", got.Username)
	require.Equal(t, []string{"admin"}, got.Roles)
	require.False(t, got.Temp)
	require.True(t, got.HasRole("admin"))
	require.False(t, got.HasRole("manager"))
}

func TestTemporaryClaimsAreFlaggedAndShortLived(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := jwtx.NewTemporaryClaims(subject(), "concierge", now)

	require.True(t, claims.Temp)
	require.WithinDuration(t, now.Add(jwtx.TemporaryTTL), claims.ExpiresAt.Time, time.Second)
}

func TestVerifyFailures(t *testing.T) {
	t.Parallel()

	signer := newSigner(t)
	verifier := jwtx.NewVerifier(signer.PublicKey(), "concierge")

	t.Run("expired token", func(t *testing.T) {
		claims := jwtx.NewSessionClaims(subject(), time.Hour, "concierge", time.Now().Add(-2*time.Hour))
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("token signed by another key", func(t *testing.T) {
		other := newSigner(t)
		token, err := other.Sign(jwtx.NewSessionClaims(subject(), time.Hour, "concierge", time.Now()))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewSessionClaims(subject(), time.Hour, "other-service", time.Now()))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("rejects non-EdDSA algorithms", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
		signed, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = verifier.Verify(signed)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}
