package service

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/mail"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/idx"
)

// SendersService is the CRUD for outbound SMTP mailboxes, plus a test-send
// action so an admin can confirm credentials before relying on them.
type SendersService struct {
	Store  store.Store
	Mailer mail.Mailer
}

// SenderParams are the configurable fields of an email sender.
type SenderParams struct {
	Address     string
	DisplayName string
	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	UseTLS      bool
}

func (p *SenderParams) validate() error {
	p.Address = strings.ToLower(strings.TrimSpace(p.Address))
	if _, err := netmail.ParseAddress(p.Address); err != nil {
		return domain.Validationf("invalid sender address")
	}
	if p.SMTPHost == "" {
		return domain.Validationf("smtp host is required")
	}
	if p.SMTPPort <= 0 || p.SMTPPort > 65535 {
		return domain.Validationf("smtp port out of range")
	}
	return nil
}

func (s *SendersService) List(ctx context.Context) ([]domain.EmailSender, error) {
	senders, err := s.Store.Senders().List(ctx)
	if err != nil {
		return nil, err
	}
	// Passwords stay server-side.
	for i := range senders {
		senders[i].Password = ""
	}
	return senders, nil
}

func (s *SendersService) Create(ctx context.Context, p SenderParams) (domain.EmailSender, error) {
	if err := p.validate(); err != nil {
		return domain.EmailSender{}, err
	}

	sender := domain.EmailSender{
		ID:          idx.New().String(),
		Address:     p.Address,
		DisplayName: p.DisplayName,
		SMTPHost:    p.SMTPHost,
		SMTPPort:    p.SMTPPort,
		Username:    p.Username,
		Password:    p.Password,
		UseTLS:      p.UseTLS,
	}

	if err := s.Store.Senders().Create(ctx, sender); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.EmailSender{}, fmt.Errorf("%w: sender %q", domain.ErrConflict, sender.Address)
		}
		return domain.EmailSender{}, fmt.Errorf("create sender: %w", err)
	}

	sender.Password = ""
	return sender, nil
}

func (s *SendersService) Update(ctx context.Context, id string, p SenderParams) (domain.EmailSender, error) {
	if err := p.validate(); err != nil {
		return domain.EmailSender{}, err
	}

	existing, err := s.Store.Senders().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.EmailSender{}, domain.ErrNotFound
		}
		return domain.EmailSender{}, fmt.Errorf("lookup sender: %w", err)
	}

	existing.Address = p.Address
	existing.DisplayName = p.DisplayName
	existing.SMTPHost = p.SMTPHost
	existing.SMTPPort = p.SMTPPort
	existing.Username = p.Username
	existing.UseTLS = p.UseTLS
	// An empty password means "keep the stored one".
	if p.Password != "" {
		existing.Password = p.Password
	}

	if err := s.Store.Senders().Update(ctx, existing); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.EmailSender{}, fmt.Errorf("%w: sender %q", domain.ErrConflict, existing.Address)
		}
		return domain.EmailSender{}, fmt.Errorf("update sender: %w", err)
	}

	existing.Password = ""
	return existing, nil
}

func (s *SendersService) Delete(ctx context.Context, id string) error {
	if _, err := s.Store.Senders().GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lookup sender: %w", err)
	}
	return s.Store.Senders().Delete(ctx, id)
}

// Test dispatches a probe message through the sender to the given address.
func (s *SendersService) Test(ctx context.Context, id, to string) error {
	if _, err := netmail.ParseAddress(to); err != nil {
		return domain.Validationf("invalid recipient address")
	}

	sender, err := s.Store.Senders().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lookup sender: %w", err)
	}

	policy, err := s.Store.Policy().Get(ctx)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}

	if err := s.Mailer.Send(ctx, sender, mail.TestMessage(policy.AppName, to)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	return nil
}
