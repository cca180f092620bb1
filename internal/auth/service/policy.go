package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

// PolicyService reads and updates the singleton system policy. Flipping the
// global two-factor toggle only changes what happens at login; it never
// touches any account's enrollment state.
type PolicyService struct {
	Store store.Store
}

func (s *PolicyService) Get(ctx context.Context) (domain.SystemPolicy, error) {
	return s.Store.Policy().Get(ctx)
}

func (s *PolicyService) Update(ctx context.Context, p domain.SystemPolicy) (domain.SystemPolicy, error) {
	if p.AppName == "" {
		return domain.SystemPolicy{}, domain.Validationf("app name is required")
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Policy().Get(ctx)
		if err != nil {
			return fmt.Errorf("read policy: %w", err)
		}

		// Forcing 2FA on is pointless if nobody can receive a recovery
		// code, so demand at least one configured sender first.
		if p.TwoFactorEnabled && !current.TwoFactorEnabled {
			count, err := tx.Senders().Count(ctx)
			if err != nil {
				return fmt.Errorf("count senders: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("%w: configure an email sender before enabling two-factor", domain.ErrPolicyViolation)
			}
		}

		if p.RecoverySenderID != nil {
			if _, err := tx.Senders().GetByID(ctx, *p.RecoverySenderID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return domain.Validationf("unknown sender %q", *p.RecoverySenderID)
				}
				return fmt.Errorf("lookup sender: %w", err)
			}
		}

		return tx.Policy().Update(ctx, p)
	})
	if err != nil {
		return domain.SystemPolicy{}, err
	}

	slogx.FromContext(ctx).Info("system policy updated",
		"two_factor_enabled", p.TwoFactorEnabled, "app_name", p.AppName)

	return s.Store.Policy().Get(ctx)
}
