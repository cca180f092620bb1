package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

// writeDomainError maps the service error taxonomy onto HTTP responses in one
// place so individual handlers never branch on error values.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := slogx.FromContext(ctx)

	var rateLimited *domain.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.Minutes*60))
		writeError(w, http.StatusTooManyRequests, "rate_limited", rateLimited.Error())

	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")

	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token_expired", "Token has expired")

	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrWrongTokenType):
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")

	case errors.Is(err, domain.ErrCodeInvalid):
		writeError(w, http.StatusBadRequest, "invalid_code", "Code is invalid")

	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "code_expired", "Code has expired, request a new one")

	case errors.Is(err, domain.ErrNotEnabled):
		writeError(w, http.StatusBadRequest, "two_factor_not_enabled", "Two-factor authentication is not enabled")

	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Resource not found")

	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, domain.ErrPolicyViolation):
		writeError(w, http.StatusForbidden, "policy_violation", err.Error())

	case errors.Is(err, domain.ErrDeliveryFailed):
		log.Warn("email delivery failed", "err", err)
		writeError(w, http.StatusBadGateway, "delivery_failed", "Could not send the email, try again later")

	default:
		log.Error("unhandled service error", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

// decodeJSON parses a request body, reporting malformed payloads uniformly.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to parse request", "err", err)
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}
