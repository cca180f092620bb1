package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

// AuthnMiddleware verifies a bearer token and requires a full session token.
// Temporary tokens (issued between password success and 2FA completion) are
// rejected here so a half-finished login can never reach protected resources.
func AuthnMiddleware(v *jwtx.Verifier) Middleware {
	return authnMiddleware(v, false)
}

// TempAuthnMiddleware verifies a bearer token and requires a temporary token.
// Only the 2FA continuation endpoints sit behind this; a full session token is
// rejected to keep the two token kinds from being interchangeable.
func TempAuthnMiddleware(v *jwtx.Verifier) Middleware {
	return authnMiddleware(v, true)
}

func authnMiddleware(v *jwtx.Verifier, wantTemp bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			if claims.Temp != wantTemp {
				writeBearerError(w, "wrong token type")
				log.Warn("wrong token type", "temp", claims.Temp, "path", r.URL.Path)
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRoles, c.Roles)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
