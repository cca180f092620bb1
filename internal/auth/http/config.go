package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// ConfigHandler handles the admin system configuration endpoints.
type ConfigHandler struct {
	PolicyService *service.PolicyService
}

type configResponse struct {
	TwoFactorEnabled bool    `json:"two_factor_enabled"`
	AppName          string  `json:"app_name"`
	RecoverySenderID *string `json:"recovery_sender_id,omitempty"`
}

func toConfigResponse(p domain.SystemPolicy) configResponse {
	return configResponse{
		TwoFactorEnabled: p.TwoFactorEnabled,
		AppName:          p.AppName,
		RecoverySenderID: p.RecoverySenderID,
	}
}

// HandleGet handles GET /v1/admin/config.
func (h *ConfigHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policy, err := h.PolicyService.Get(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toConfigResponse(policy))
}

type configUpdateRequest struct {
	TwoFactorEnabled bool    `json:"two_factor_enabled"`
	AppName          string  `json:"app_name"`
	RecoverySenderID *string `json:"recovery_sender_id"`
}

// HandleUpdate handles PUT /v1/admin/config.
func (h *ConfigHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req configUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	policy, err := h.PolicyService.Update(ctx, domain.SystemPolicy{
		TwoFactorEnabled: req.TwoFactorEnabled,
		AppName:          req.AppName,
		RecoverySenderID: req.RecoverySenderID,
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toConfigResponse(policy))
}
