package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// TwoFactorHandler handles the authenticated 2FA settings endpoints. Unlike
// the mandatory-setup flow these run under a full session and never issue a
// new token.
type TwoFactorHandler struct {
	LoginService *service.LoginService
}

// HandleStatus handles GET /v1/auth/2fa/status.
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	acct, err := h.LoginService.Store.Accounts().GetByID(ctx, userID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	backupCodes, err := h.LoginService.Store.BackupCodes().Count(ctx, userID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"enabled":                acct.TOTPEnabled,
		"backup_codes_remaining": backupCodes,
	})
}

// HandleSetup handles POST /v1/auth/2fa/setup: voluntary enrollment begin.
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	enrollment, err := h.LoginService.BeginEnrollment(ctx, userID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollmentResponse{
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.OTPAuthURL,
		QRCode:     enrollment.QRCode,
	})
}

// HandleVerifySetup handles POST /v1/auth/2fa/verify-setup. The caller keeps
// its existing session; only the backup codes come back.
func (h *TwoFactorHandler) HandleVerifySetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	var req completeEnrollmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := h.LoginService.CompleteEnrollment(ctx, userID, req.Secret, req.Code, false)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"profile":      grant.Profile,
		"backup_codes": grant.BackupCodes,
	})
}

// HandleDisable handles POST /v1/auth/2fa/disable.
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	if err := h.LoginService.Disable(ctx, userID); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Two-factor authentication disabled",
	})
}
