package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

// LoginHandler handles the login state machine endpoints: credential
// verification and the temporary-token continuations (code challenge and
// mandatory enrollment).
type LoginHandler struct {
	LoginService *service.LoginService
}

type loginRequest struct {
	Identifier string `json:"identifier"` // username or email
	Password   string `json:"password"`
}

type loginResponse struct {
	Outcome string          `json:"outcome"`
	Token   string          `json:"token"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

type sessionResponse struct {
	Token       string         `json:"token"`
	Profile     domain.Profile `json:"profile"`
	BackupCodes []string       `json:"backup_codes,omitempty"`
}

// HandleLogin handles POST /v1/auth/login.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.LoginService.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("login", "outcome", res.Outcome)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Outcome: string(res.Outcome),
		Token:   res.Token,
		Profile: res.Profile,
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

// HandleVerify handles POST /v1/auth/2fa/verify. The temporary token proves
// the password stage already passed; the code finishes the login.
func (h *LoginHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
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

	grant, err := h.LoginService.VerifyChallenge(ctx, userID, req.Code)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:   grant.Token,
		Profile: grant.Profile,
	})
}

type enrollmentResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"`
}

// HandleSetupMandatory handles POST /v1/auth/2fa/setup-mandatory: the forced
// enrollment begin step for accounts caught by the global toggle.
func (h *LoginHandler) HandleSetupMandatory(w http.ResponseWriter, r *http.Request) {
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

type completeEnrollmentRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// HandleVerifySetupMandatory handles POST /v1/auth/2fa/verify-setup-mandatory.
// A valid code persists the enrollment and finishes the login in one step.
func (h *LoginHandler) HandleVerifySetupMandatory(w http.ResponseWriter, r *http.Request) {
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

	grant, err := h.LoginService.CompleteEnrollment(ctx, userID, req.Secret, req.Code, true)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:       grant.Token,
		Profile:     grant.Profile,
		BackupCodes: grant.BackupCodes,
	})
}
