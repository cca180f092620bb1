package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// DomainsHandler handles the admin managed-domain endpoints.
type DomainsHandler struct {
	DomainsService *service.DomainsService
}

type domainResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleList handles GET /v1/admin/domains.
func (h *DomainsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domains, err := h.DomainsService.List(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	out := make([]domainResponse, 0, len(domains))
	for _, d := range domains {
		out = append(out, domainResponse{ID: d.ID, Name: d.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type domainCreateRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /v1/admin/domains.
func (h *DomainsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domainCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.DomainsService.Create(ctx, req.Name)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, domainResponse{ID: d.ID, Name: d.Name})
}

// HandleDelete handles DELETE /v1/admin/domains/{id}.
func (h *DomainsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.DomainsService.Delete(ctx, r.PathValue("id")); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Domain deleted",
	})
}
