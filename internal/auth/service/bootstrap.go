package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/idx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

var ErrBootstrapAlready = errors.New("system already has accounts")

// BootstrapService seeds the stock roles and, on an empty database, the
// initial admin account taken from configuration. Everything is idempotent
// so restarts are harmless.
type BootstrapService struct {
	Store store.Store
	Roles *RolesService
}

// Run seeds roles and, if the accounts table is empty and credentials are
// configured, the first admin. Missing credentials on an empty database is
// not an error; the operator just can't sign in until they provide them.
func (s *BootstrapService) Run(ctx context.Context, adminUsername, adminEmail, adminPassword string) error {
	if err := s.Roles.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check accounts: %w", err)
	}
	if !empty {
		return nil
	}

	if adminUsername == "" || adminEmail == "" || adminPassword == "" {
		slogx.FromContext(ctx).Warn("no accounts exist and no bootstrap admin configured")
		return nil
	}

	if err := s.createAdmin(ctx, adminUsername, adminEmail, adminPassword); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("bootstrap admin created", "username", adminUsername)
	return nil
}

func (s *BootstrapService) createAdmin(ctx context.Context, username, email, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-check inside the tx; two replicas may race here.
		empty, err := tx.Accounts().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}

		adminRole, err := tx.Roles().GetByName(ctx, domain.AdminRole)
		if err != nil {
			return fmt.Errorf("lookup admin role: %w", err)
		}

		acct := domain.Account{
			ID:           idx.New().String(),
			Username:     username,
			Email:        email,
			PasswordHash: hash,
		}
		if err := tx.Accounts().Create(ctx, acct); err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}

		return tx.Accounts().ReplaceRoles(ctx, acct.ID, []string{adminRole.ID})
	})
}
