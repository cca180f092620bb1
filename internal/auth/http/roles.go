package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// RolesHandler handles the admin role management endpoints.
type RolesHandler struct {
	RolesService *service.RolesService
}

type roleResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
}

func toRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Members: r.Members}
}

// HandleList handles GET /v1/admin/roles.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roles, err := h.RolesService.List(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type roleNameRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /v1/admin/roles.
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req roleNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.RolesService.Create(ctx, req.Name)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toRoleResponse(role))
}

// HandleRename handles PUT /v1/admin/roles/{id}.
func (h *RolesHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req roleNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.RolesService.Rename(ctx, r.PathValue("id"), req.Name)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toRoleResponse(role))
}

// HandleDelete handles DELETE /v1/admin/roles/{id}.
func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.RolesService.Delete(ctx, r.PathValue("id")); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Role deleted",
	})
}
