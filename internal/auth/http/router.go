package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	TokenService    *service.TokenService
	LoginService    *service.LoginService
	RecoveryService *service.RecoveryService
	AccountService  *service.AccountService
	RolesService    *service.RolesService
	PolicyService   *service.PolicyService
	SendersService  *service.SendersService
	DomainsService  *service.DomainsService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerRecovery()
	r.registerProfile()
	r.registerTwoFactor()
	r.registerAdminUsers()
	r.registerAdminRoles()
	r.registerAdminConfig()
	r.registerAdminSenders()
	r.registerAdminDomains()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{LoginService: r.LoginService}

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /2fa/verify - temporary token + strict limit (code brute force)
	r.Mux.Handle("POST /v1/auth/2fa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.TempAuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// Mandatory-setup continuation: same temporary token, moderate limit on
	// the QR generation, strict on the code check.
	r.Mux.Handle("POST /v1/auth/2fa/setup-mandatory",
		httpx.Chain(http.HandlerFunc(h.HandleSetupMandatory),
			httpx.TempAuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/2fa/verify-setup-mandatory",
		httpx.Chain(http.HandlerFunc(h.HandleVerifySetupMandatory),
			httpx.TempAuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerRecovery() {
	h := &RecoveryHandler{RecoveryService: r.RecoveryService}

	// 2FA recovery rides on the temporary token from the password stage.
	r.Mux.Handle("POST /v1/auth/2fa/recovery/request",
		httpx.Chain(http.HandlerFunc(h.HandleRecoveryRequest),
			httpx.TempAuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/2fa/recovery/verify",
		httpx.Chain(http.HandlerFunc(h.HandleRecoveryVerify),
			httpx.TempAuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// Password reset is fully public; strict IP limits on both steps.
	r.Mux.Handle("POST /v1/auth/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordResetRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/verify",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordResetVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{AccountService: r.AccountService}

	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("GET /v1/auth/profile", secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/auth/profile", secured(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/auth/profile/password", secured(h.HandleChangePassword, httpx.StrictLimit))
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{LoginService: r.LoginService}

	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("GET /v1/auth/2fa/status", secured(h.HandleStatus, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/auth/2fa/setup", secured(h.HandleSetup, httpx.ModerateLimit))
	// Strict limit: this endpoint checks TOTP codes.
	r.Mux.Handle("POST /v1/auth/2fa/verify-setup", secured(h.HandleVerifySetup, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/auth/2fa/disable", secured(h.HandleDisable, httpx.ModerateLimit))
}

// admin wraps a handler with session auth, the admin role requirement and a
// per-user rate limit.
func (r *Router) admin(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(fn,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole("admin"),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAdminUsers() {
	h := &UsersHandler{AccountService: r.AccountService}

	r.Mux.Handle("GET /v1/admin/users", r.admin(h.HandleList, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/users", r.admin(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/users/{id}", r.admin(h.HandleGet, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/admin/users/{id}", r.admin(h.HandleDelete, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/admin/users/{id}/password", r.admin(h.HandleSetPassword, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/admin/users/{id}/roles", r.admin(h.HandleAssignRoles, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/users/{id}/reset-2fa", r.admin(h.HandleReset2FA, httpx.ModerateLimit))
}

func (r *Router) registerAdminRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	r.Mux.Handle("GET /v1/admin/roles", r.admin(h.HandleList, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/roles", r.admin(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/admin/roles/{id}", r.admin(h.HandleRename, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/admin/roles/{id}", r.admin(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerAdminConfig() {
	h := &ConfigHandler{PolicyService: r.PolicyService}

	r.Mux.Handle("GET /v1/admin/config", r.admin(h.HandleGet, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/admin/config", r.admin(h.HandleUpdate, httpx.ModerateLimit))
}

func (r *Router) registerAdminSenders() {
	h := &SendersHandler{SendersService: r.SendersService}

	r.Mux.Handle("GET /v1/admin/senders", r.admin(h.HandleList, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/senders", r.admin(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/admin/senders/{id}", r.admin(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/admin/senders/{id}", r.admin(h.HandleDelete, httpx.ModerateLimit))
	// Strict: each call sends real mail.
	r.Mux.Handle("POST /v1/admin/senders/{id}/test", r.admin(h.HandleTest, httpx.StrictLimit))
}

func (r *Router) registerAdminDomains() {
	h := &DomainsHandler{DomainsService: r.DomainsService}

	r.Mux.Handle("GET /v1/admin/domains", r.admin(h.HandleList, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/domains", r.admin(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/admin/domains/{id}", r.admin(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
