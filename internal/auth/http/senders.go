package http

import (
	"net/http"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// SendersHandler handles the admin email sender endpoints. Passwords are
// accepted on the way in and never returned.
type SendersHandler struct {
	SendersService *service.SendersService
}

type senderResponse struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
	SMTPHost    string `json:"smtp_host"`
	SMTPPort    int    `json:"smtp_port"`
	Username    string `json:"username"`
	UseTLS      bool   `json:"use_tls"`
}

func toSenderResponse(s domain.EmailSender) senderResponse {
	return senderResponse{
		ID:          s.ID,
		Address:     s.Address,
		DisplayName: s.DisplayName,
		SMTPHost:    s.SMTPHost,
		SMTPPort:    s.SMTPPort,
		Username:    s.Username,
		UseTLS:      s.UseTLS,
	}
}

type senderRequest struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
	SMTPHost    string `json:"smtp_host"`
	SMTPPort    int    `json:"smtp_port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseTLS      bool   `json:"use_tls"`
}

func (r *senderRequest) params() service.SenderParams {
	return service.SenderParams{
		Address:     r.Address,
		DisplayName: r.DisplayName,
		SMTPHost:    r.SMTPHost,
		SMTPPort:    r.SMTPPort,
		Username:    r.Username,
		Password:    r.Password,
		UseTLS:      r.UseTLS,
	}
}

// HandleList handles GET /v1/admin/senders.
func (h *SendersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	senders, err := h.SendersService.List(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	out := make([]senderResponse, 0, len(senders))
	for _, s := range senders {
		out = append(out, toSenderResponse(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /v1/admin/senders.
func (h *SendersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req senderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sender, err := h.SendersService.Create(ctx, req.params())
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSenderResponse(sender))
}

// HandleUpdate handles PUT /v1/admin/senders/{id}. An empty password keeps
// the stored one.
func (h *SendersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req senderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sender, err := h.SendersService.Update(ctx, r.PathValue("id"), req.params())
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSenderResponse(sender))
}

// HandleDelete handles DELETE /v1/admin/senders/{id}.
func (h *SendersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.SendersService.Delete(ctx, r.PathValue("id")); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Sender deleted",
	})
}

type senderTestRequest struct {
	To string `json:"to"`
}

// HandleTest handles POST /v1/admin/senders/{id}/test.
func (h *SendersHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req senderTestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.SendersService.Test(ctx, r.PathValue("id"), req.To); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Test message sent",
	})
}
