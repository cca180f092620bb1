package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

// UsersHandler handles the admin account management endpoints.
type UsersHandler struct {
	AccountService *service.AccountService
}

// HandleList handles GET /v1/admin/users.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.AccountService.List(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	profiles := make([]domain.Profile, 0, len(accounts))
	for i := range accounts {
		profiles = append(profiles, domain.NewProfile(&accounts[i]))
	}
	httpx.WriteJSON(w, http.StatusOK, profiles)
}

type createUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	LastName string   `json:"last_name"`
	Password string   `json:"password"`
	RoleIDs  []string `json:"role_ids"`
}

// HandleCreate handles POST /v1/admin/users.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.AccountService.Create(ctx, service.CreateParams{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		LastName: req.LastName,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, domain.NewProfile(&acct))
}

// HandleGet handles GET /v1/admin/users/{id}.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acct, err := h.AccountService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.NewProfile(&acct))
}

// HandleDelete handles DELETE /v1/admin/users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := httpx.UserIDFromContext(ctx)
	if !ok || actorID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid")
		return
	}

	id := r.PathValue("id")
	if err := h.AccountService.Delete(ctx, actorID, id); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("account deleted", "account_id", id, "actor_id", actorID)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Account deleted",
	})
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// HandleSetPassword handles PUT /v1/admin/users/{id}/password.
func (h *UsersHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AccountService.SetPassword(ctx, r.PathValue("id"), req.Password); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

type assignRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

// HandleAssignRoles handles PUT /v1/admin/users/{id}/roles.
func (h *UsersHandler) HandleAssignRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assignRolesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.AccountService.AssignRoles(ctx, r.PathValue("id"), req.RoleIDs)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.NewProfile(&acct))
}

// HandleReset2FA handles POST /v1/admin/users/{id}/reset-2fa.
func (h *UsersHandler) HandleReset2FA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.AccountService.ForceReset2FA(ctx, r.PathValue("id")); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Two-factor authentication reset",
	})
}
