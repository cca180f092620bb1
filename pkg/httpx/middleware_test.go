package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/concierge/pkg/httpx"
	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokenPair(t *testing.T) (*jwtx.Signer, *jwtx.Verifier) {
	t.Helper()

	pemKey, err := jwtx.GenerateKeyPEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSigner(pemKey)
	require.NoError(t, err)

	return signer, jwtx.NewVerifier(signer.PublicKey(), "concierge")
}

func signToken(t *testing.T, signer *jwtx.Signer, temp bool, roles ...string) string {
	t.Helper()

	sub := jwtx.Subject{ID: "acct-1", Username: "admin", Roles: roles}
	var claims jwtx.Claims
	if temp {
		claims = jwtx.NewTemporaryClaims(sub, "concierge", time.Now())
	} else {
		claims = jwtx.NewSessionClaims(sub, time.Hour, "concierge", time.Now())
	}

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestAuthnMiddleware(t *testing.T) {
	signer, verifier := newTokenPair(t)

	var gotUserID string
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = httpx.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
		httpx.AuthnMiddleware(verifier),
	)

	t.Run("accepts session token and exposes identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, false, "admin"))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "acct-1", gotUserID)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("rejects temporary token on session endpoints", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, true))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "wrong token type")
	})
}

func TestTempAuthnMiddleware(t *testing.T) {
	signer, verifier := newTokenPair(t)

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		httpx.TempAuthnMiddleware(verifier),
	)

	t.Run("accepts temporary token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, true))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects session token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, false, "admin"))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAnyRole(t *testing.T) {
	signer, verifier := newTokenPair(t)

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		httpx.AuthnMiddleware(verifier),
		httpx.RequireAnyRole("admin"),
	)

	t.Run("allows caller with role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, false, "operator", "admin"))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbids caller without role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, false, "operator"))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
