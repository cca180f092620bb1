package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/concierge/internal/auth/http"
	"github.com/aussiebroadwan/concierge/internal/auth/mail"
	"github.com/aussiebroadwan/concierge/internal/auth/service"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   *jwtx.Signer
	verifier *jwtx.Verifier
	mailer   mail.Mailer

	// Services
	tokenService        *service.TokenService
	loginService        *service.LoginService
	recoveryService     *service.RecoveryService
	accountService      *service.AccountService
	rolesService        *service.RolesService
	policyService       *service.PolicyService
	sendersService      *service.SendersService
	domainsService      *service.DomainsService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "concierge-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, verifier, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.signer = signer
	app.verifier = verifier
	app.mailer = mail.NewSMTPMailer()

	app.initServices()
	app.initHTTP()

	// Seed the stock roles and, on an empty database, the first admin.
	if err := app.bootstrapService.Run(
		context.Background(),
		app.cfg.AdminUsername,
		app.cfg.AdminEmail,
		app.cfg.AdminPassword,
	); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer:     app.signer,
		Verifier:   app.verifier,
		Issuer:     app.cfg.Issuer,
		SessionTTL: app.cfg.SessionTTL,
	}

	twoFactor := &service.TwoFactorService{}

	app.loginService = &service.LoginService{
		Store:     app.db,
		Tokens:    app.tokenService,
		TwoFactor: twoFactor,
	}
	app.recoveryService = &service.RecoveryService{
		Store:  app.db,
		Mailer: app.mailer,
		Tokens: app.tokenService,
	}
	app.accountService = &service.AccountService{Store: app.db}
	app.rolesService = &service.RolesService{Store: app.db}
	app.policyService = &service.PolicyService{Store: app.db}
	app.sendersService = &service.SendersService{Store: app.db, Mailer: app.mailer}
	app.domainsService = &service.DomainsService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Roles: app.rolesService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.LoginService = app.loginService
	router.RecoveryService = app.recoveryService
	router.AccountService = app.accountService
	router.RolesService = app.rolesService
	router.PolicyService = app.policyService
	router.SendersService = app.sendersService
	router.DomainsService = app.domainsService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
