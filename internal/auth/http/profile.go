package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// ProfileHandler handles the authenticated self-service profile endpoints.
type ProfileHandler struct {
	AccountService *service.AccountService
}

// HandleGet handles GET /v1/auth/profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	acct, err := h.AccountService.Get(ctx, userID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.NewProfile(&acct))
}

type profileUpdateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
}

// HandleUpdate handles PUT /v1/auth/profile.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.AccountService.UpdateProfile(ctx, userID, req.Email, req.Name, req.LastName)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.NewProfile(&acct))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles PUT /v1/auth/profile/password.
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AccountService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}
