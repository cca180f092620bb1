package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/idx"
)

var domainNameRe = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// DomainsService is the managed-domain CRUD.
type DomainsService struct {
	Store store.Store
}

func (s *DomainsService) List(ctx context.Context) ([]domain.HostedDomain, error) {
	return s.Store.Domains().List(ctx)
}

func (s *DomainsService) Create(ctx context.Context, name string) (domain.HostedDomain, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !domainNameRe.MatchString(name) {
		return domain.HostedDomain{}, domain.Validationf("invalid domain name %q", name)
	}

	d := domain.HostedDomain{ID: idx.New().String(), Name: name}
	if err := s.Store.Domains().Create(ctx, d); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.HostedDomain{}, fmt.Errorf("%w: domain %q", domain.ErrConflict, name)
		}
		return domain.HostedDomain{}, fmt.Errorf("create domain: %w", err)
	}
	return d, nil
}

func (s *DomainsService) Delete(ctx context.Context, id string) error {
	return s.Store.Domains().Delete(ctx, id)
}
