package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/idx"
)

// defaultRoles are seeded on first start. "admin" is structural; the rest
// are the stock backoffice roles.
var defaultRoles = []string{
	domain.AdminRole,
	"manager",
	"operator",
	"salesperson",
	"accountant",
}

// RolesService is the role CRUD with the admin-role protections: "admin"
// can be neither renamed nor deleted, and a role still held by accounts
// cannot be deleted.
type RolesService struct {
	Store store.Store
}

func (s *RolesService) List(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

func (s *RolesService) Create(ctx context.Context, name string) (domain.Role, error) {
	name = normalizeRoleName(name)
	if name == "" {
		return domain.Role{}, domain.Validationf("role name is required")
	}

	role := domain.Role{ID: idx.New().String(), Name: name}
	if err := s.Store.Roles().Create(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, fmt.Errorf("%w: role %q", domain.ErrConflict, name)
		}
		return domain.Role{}, fmt.Errorf("create role: %w", err)
	}

	return s.Store.Roles().GetByID(ctx, role.ID)
}

func (s *RolesService) Rename(ctx context.Context, id, name string) (domain.Role, error) {
	name = normalizeRoleName(name)
	if name == "" {
		return domain.Role{}, domain.Validationf("role name is required")
	}

	role, err := s.Store.Roles().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Role{}, domain.ErrNotFound
		}
		return domain.Role{}, fmt.Errorf("lookup role: %w", err)
	}

	if role.Name == domain.AdminRole {
		return domain.Role{}, fmt.Errorf("%w: the admin role cannot be renamed", domain.ErrPolicyViolation)
	}
	if name == domain.AdminRole {
		return domain.Role{}, fmt.Errorf("%w: role %q", domain.ErrConflict, name)
	}

	if err := s.Store.Roles().Rename(ctx, id, name); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, fmt.Errorf("%w: role %q", domain.ErrConflict, name)
		}
		return domain.Role{}, fmt.Errorf("rename role: %w", err)
	}

	return s.Store.Roles().GetByID(ctx, id)
}

func (s *RolesService) Delete(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		role, err := tx.Roles().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lookup role: %w", err)
		}

		if role.Name == domain.AdminRole {
			return fmt.Errorf("%w: the admin role cannot be deleted", domain.ErrPolicyViolation)
		}
		if role.Members > 0 {
			return fmt.Errorf("%w: role %q still has %d member(s)", domain.ErrPolicyViolation, role.Name, role.Members)
		}

		return tx.Roles().Delete(ctx, id)
	})
}

// EnsureDefaults creates any missing stock roles. Idempotent; runs at start.
func (s *RolesService) EnsureDefaults(ctx context.Context) error {
	for _, name := range defaultRoles {
		_, err := s.Store.Roles().GetByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("lookup role %q: %w", name, err)
		}

		role := domain.Role{ID: idx.New().String(), Name: name}
		if err := s.Store.Roles().Create(ctx, role); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
	}
	return nil
}

func normalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
