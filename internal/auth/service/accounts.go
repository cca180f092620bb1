package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/idx"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

const minPasswordLength = 8

// AccountService covers profile self-service and the admin account CRUD.
// The admin operations enforce the two structural guards: you cannot delete
// yourself, and the last account holding the admin role can neither be
// deleted nor stripped of it.
type AccountService struct {
	Store store.Store
}

func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	return acct, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.Store.Accounts().List(ctx)
}

// CreateParams are the inputs for an admin-created account.
type CreateParams struct {
	Username string
	Email    string
	Name     string
	LastName string
	Password string
	RoleIDs  []string
}

// Create inserts a new account with its role memberships in one transaction.
func (s *AccountService) Create(ctx context.Context, p CreateParams) (domain.Account, error) {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	if p.Username == "" {
		return domain.Account{}, domain.Validationf("username is required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return domain.Account{}, domain.Validationf("invalid email address")
	}
	if len(p.Password) < minPasswordLength {
		return domain.Account{}, domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	acct := domain.Account{
		ID:           idx.New().String(),
		Username:     p.Username,
		Email:        p.Email,
		Name:         p.Name,
		LastName:     p.LastName,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Resolve role IDs first so a bogus one fails the whole create.
		for _, roleID := range p.RoleIDs {
			if _, err := tx.Roles().GetByID(ctx, roleID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return domain.Validationf("unknown role %q", roleID)
				}
				return fmt.Errorf("lookup role: %w", err)
			}
		}

		if err := tx.Accounts().Create(ctx, acct); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("%w: username or email taken", domain.ErrConflict)
			}
			return fmt.Errorf("create account: %w", err)
		}

		return tx.Accounts().ReplaceRoles(ctx, acct.ID, p.RoleIDs)
	})
	if err != nil {
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("account created", "account_id", acct.ID, "username", acct.Username)
	return s.Get(ctx, acct.ID)
}

// UpdateProfile mutates the account's own profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, id, email, name, lastName string) (domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Account{}, domain.Validationf("invalid email address")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return domain.Account{}, err
	}

	if err := s.Store.Accounts().UpdateProfile(ctx, id, email, name, lastName); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, fmt.Errorf("%w: email taken", domain.ErrConflict)
		}
		return domain.Account{}, fmt.Errorf("update profile: %w", err)
	}

	return s.Get(ctx, id)
}

// ChangePassword is the self-service path: the current password must verify.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	if len(next) < minPasswordLength {
		return domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	acct, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(current, acct.PasswordHash); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.Accounts().UpdatePasswordHash(ctx, id, hash)
}

// SetPassword is the admin path: no current password needed.
func (s *AccountService) SetPassword(ctx context.Context, id, next string) error {
	if len(next) < minPasswordLength {
		return domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.Accounts().UpdatePasswordHash(ctx, id, hash)
}

// Delete removes an account. Self-deletion is refused, and so is deleting
// the last holder of the admin role; both checks run inside the transaction
// so concurrent admin changes can't slip through.
func (s *AccountService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrPolicyViolation)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		acct, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lookup account: %w", err)
		}

		if acct.HasRole(domain.AdminRole) {
			admins, err := tx.Accounts().CountWithRole(ctx, domain.AdminRole)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return fmt.Errorf("%w: cannot delete the last admin", domain.ErrPolicyViolation)
			}
		}

		return tx.Accounts().Delete(ctx, id)
	})
}

// AssignRoles rewrites an account's role memberships, refusing to strip the
// admin role from its last holder.
func (s *AccountService) AssignRoles(ctx context.Context, id string, roleIDs []string) (domain.Account, error) {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		acct, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lookup account: %w", err)
		}

		keepsAdmin := false
		for _, roleID := range roleIDs {
			role, err := tx.Roles().GetByID(ctx, roleID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return domain.Validationf("unknown role %q", roleID)
				}
				return fmt.Errorf("lookup role: %w", err)
			}
			if role.Name == domain.AdminRole {
				keepsAdmin = true
			}
		}

		if acct.HasRole(domain.AdminRole) && !keepsAdmin {
			admins, err := tx.Accounts().CountWithRole(ctx, domain.AdminRole)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return fmt.Errorf("%w: cannot remove the admin role from the last admin", domain.ErrPolicyViolation)
			}
		}

		return tx.Accounts().ReplaceRoles(ctx, id, roleIDs)
	})
	if err != nil {
		return domain.Account{}, err
	}

	return s.Get(ctx, id)
}

// ForceReset2FA is the admin escape hatch for a locked-out user: it strips
// the authenticator, backup codes and any outstanding recovery code so the
// user can sign in with just their password and re-enroll.
func (s *AccountService) ForceReset2FA(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAll(ctx, id); err != nil {
			return fmt.Errorf("delete backup codes: %w", err)
		}
		if err := tx.Accounts().DisableTOTP(ctx, id); err != nil {
			return fmt.Errorf("disable TOTP: %w", err)
		}
		if err := tx.Accounts().SetRecoveryCode(ctx, id, nil, nil); err != nil {
			return fmt.Errorf("clear recovery code: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("two-factor force reset", "account_id", id)
	return nil
}
