package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// RecoveryHandler handles the two emailed-code flows: 2FA recovery (behind a
// temporary token) and the public password reset.
type RecoveryHandler struct {
	RecoveryService *service.RecoveryService
}

// HandleRecoveryRequest handles POST /v1/auth/2fa/recovery/request.
func (h *RecoveryHandler) HandleRecoveryRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	if err := h.RecoveryService.RequestRecovery(ctx, userID); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Recovery code sent",
	})
}

// HandleRecoveryVerify handles POST /v1/auth/2fa/recovery/verify. Success
// strips the authenticator and completes the login.
func (h *RecoveryHandler) HandleRecoveryVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := h.RecoveryService.VerifyRecovery(ctx, userID, req.Code)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:   grant.Token,
		Profile: grant.Profile,
	})
}

type passwordResetRequest struct {
	Identifier string `json:"identifier"`
}

// HandlePasswordResetRequest handles POST /v1/auth/password-reset/request.
// Unknown identifiers get the same response as known ones.
func (h *RecoveryHandler) HandlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.RecoveryService.RequestPasswordReset(ctx, req.Identifier); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a reset code has been sent",
	})
}

type passwordResetVerifyRequest struct {
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// HandlePasswordResetVerify handles POST /v1/auth/password-reset/verify. No
// session is issued; the caller signs in with the new password.
func (h *RecoveryHandler) HandlePasswordResetVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordResetVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.RecoveryService.VerifyPasswordReset(ctx, req.Identifier, req.Code, req.NewPassword); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}
