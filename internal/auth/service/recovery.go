package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/mail"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

const (
	recoveryCodeDigits = 6
	recoveryCodeTTL    = 15 * time.Minute
	// A fresh code may only be requested once the previous one is this old.
	recoveryRequestInterval = time.Hour
)

// RecoveryService runs the two emailed-code flows over the same protocol:
// 2FA recovery (caller identity already proven by a temporary token, success
// strips the authenticator) and password reset (public entry point, success
// sets a new password). Each account holds at most one outstanding code per
// flow; a new request overwrites the old one.
type RecoveryService struct {
	Store  store.Store
	Mailer mail.Mailer
	Tokens *TokenService
}

// RequestRecovery issues and emails a 2FA recovery code for the account.
func (s *RecoveryService) RequestRecovery(ctx context.Context, accountID string) error {
	acct, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !acct.TOTPEnabled {
		return domain.ErrNotEnabled
	}

	if err := checkRequestInterval(acct.RecoveryCodeExpires); err != nil {
		return err
	}

	return s.issueCode(ctx, &acct, codeKindRecovery)
}

// VerifyRecovery checks the submitted recovery code and, on success, strips
// the authenticator and backup codes and completes the login with a full
// session. The user is expected to re-enroll afterwards.
func (s *RecoveryService) VerifyRecovery(ctx context.Context, accountID, code string) (domain.SessionGrant, error) {
	if code == "" {
		return domain.SessionGrant{}, domain.Validationf("code is required")
	}

	acct, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionGrant{}, domain.ErrNotFound
		}
		return domain.SessionGrant{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := checkCode(acct.RecoveryCodeHash, acct.RecoveryCodeExpires, code); err != nil {
		return domain.SessionGrant{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().SetRecoveryCode(ctx, acct.ID, nil, nil); err != nil {
			return fmt.Errorf("clear recovery code: %w", err)
		}
		if err := tx.BackupCodes().DeleteAll(ctx, acct.ID); err != nil {
			return fmt.Errorf("delete backup codes: %w", err)
		}
		if err := tx.Accounts().DisableTOTP(ctx, acct.ID); err != nil {
			return fmt.Errorf("disable TOTP: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.SessionGrant{}, err
	}

	slogx.FromContext(ctx).Info("two-factor removed via recovery code", "account_id", acct.ID)

	acct.TOTPEnabled = false
	acct.TOTPSecret = nil

	token, err := s.Tokens.IssueSession(&acct)
	if err != nil {
		return domain.SessionGrant{}, err
	}

	now := time.Now().UTC()
	if err := s.Store.Accounts().UpdateLastLogin(ctx, acct.ID, now); err != nil {
		return domain.SessionGrant{}, fmt.Errorf("update last login: %w", err)
	}
	acct.LastLogin = &now

	return domain.SessionGrant{Token: token, Profile: domain.NewProfile(&acct)}, nil
}

// RequestPasswordReset issues and emails a password-reset code. An unknown
// identifier reports success all the same, so the endpoint cannot be used to
// enumerate accounts. Rate limiting and delivery failures do surface; they
// only leak state about requests the caller already made.
func (s *RecoveryService) RequestPasswordReset(ctx context.Context, identifier string) error {
	if identifier == "" {
		return domain.Validationf("identifier is required")
	}

	acct, err := s.Store.Accounts().GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Info("password reset requested for unknown identifier")
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := checkRequestInterval(acct.PasswordResetExpires); err != nil {
		return err
	}

	return s.issueCode(ctx, &acct, codeKindPasswordReset)
}

// VerifyPasswordReset checks the submitted reset code and sets the new
// password. No session is issued; the user signs in with the new password.
func (s *RecoveryService) VerifyPasswordReset(ctx context.Context, identifier, code, newPassword string) error {
	if code == "" {
		return domain.Validationf("code is required")
	}
	if len(newPassword) < 8 {
		return domain.Validationf("password must be at least 8 characters")
	}

	acct, err := s.Store.Accounts().GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := checkCode(acct.PasswordResetHash, acct.PasswordResetExpires, code); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().SetPasswordReset(ctx, acct.ID, nil, nil); err != nil {
			return fmt.Errorf("clear reset code: %w", err)
		}
		if err := tx.Accounts().UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset completed", "account_id", acct.ID)
	return nil
}

type codeKind int

const (
	codeKindRecovery codeKind = iota
	codeKindPasswordReset
)

// issueCode generates, persists and emails a fresh numeric code. If delivery
// fails the persisted pair is rolled back to null so the account is not left
// with a code nobody received.
func (s *RecoveryService) issueCode(ctx context.Context, acct *domain.Account, kind codeKind) error {
	policy, err := s.Store.Policy().Get(ctx)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}

	sender, err := s.designatedSender(ctx, &policy)
	if err != nil {
		return err
	}

	code, err := cryptox.GenerateNumericCode(recoveryCodeDigits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	hash := cryptox.FingerprintToken(code)
	expires := time.Now().UTC().Add(recoveryCodeTTL)
	validMinutes := int(recoveryCodeTTL.Minutes())

	var msg mail.Message
	switch kind {
	case codeKindRecovery:
		err = s.Store.Accounts().SetRecoveryCode(ctx, acct.ID, &hash, &expires)
		msg = mail.RecoveryCodeMessage(policy.AppName, acct.Email, code, validMinutes)
	case codeKindPasswordReset:
		err = s.Store.Accounts().SetPasswordReset(ctx, acct.ID, &hash, &expires)
		msg = mail.PasswordResetMessage(policy.AppName, acct.Email, code, validMinutes)
	}
	if err != nil {
		return fmt.Errorf("persist code: %w", err)
	}

	if err := s.Mailer.Send(ctx, sender, msg); err != nil {
		// Roll the pair back so a later request isn't rate limited by a
		// code that never arrived.
		var clearErr error
		switch kind {
		case codeKindRecovery:
			clearErr = s.Store.Accounts().SetRecoveryCode(ctx, acct.ID, nil, nil)
		case codeKindPasswordReset:
			clearErr = s.Store.Accounts().SetPasswordReset(ctx, acct.ID, nil, nil)
		}
		if clearErr != nil {
			slogx.FromContext(ctx).Error("failed to roll back undelivered code",
				"account_id", acct.ID, "err", clearErr)
		}
		slogx.FromContext(ctx).Warn("code delivery failed", "account_id", acct.ID, "err", err)
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	return nil
}

// designatedSender resolves the outbound mailbox the policy points at,
// falling back to the first configured sender.
func (s *RecoveryService) designatedSender(ctx context.Context, policy *domain.SystemPolicy) (domain.EmailSender, error) {
	if policy.RecoverySenderID != nil {
		sender, err := s.Store.Senders().GetByID(ctx, *policy.RecoverySenderID)
		if err == nil {
			return sender, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.EmailSender{}, fmt.Errorf("lookup sender: %w", err)
		}
	}

	senders, err := s.Store.Senders().List(ctx)
	if err != nil {
		return domain.EmailSender{}, fmt.Errorf("list senders: %w", err)
	}
	if len(senders) == 0 {
		return domain.EmailSender{}, fmt.Errorf("%w: no email sender configured", domain.ErrDeliveryFailed)
	}
	return senders[0], nil
}

// checkRequestInterval enforces the one-request-per-hour window. The issue
// time is derived from the stored expiry (expiry = issued + TTL), so no extra
// column is needed.
func checkRequestInterval(expires *time.Time) error {
	if expires == nil {
		return nil
	}

	issued := expires.Add(-recoveryCodeTTL)
	elapsed := time.Since(issued)
	if elapsed >= recoveryRequestInterval {
		return nil
	}

	minutes := int((recoveryRequestInterval - elapsed).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return &domain.RateLimitedError{Minutes: minutes}
}

// checkCode validates an outstanding code pair against a submission.
func checkCode(hash *string, expires *time.Time, code string) error {
	if hash == nil || expires == nil {
		return domain.ErrNotFound
	}
	if time.Now().UTC().After(*expires) {
		return domain.ErrCodeExpired
	}
	if cryptox.FingerprintToken(code) != *hash {
		return domain.ErrCodeInvalid
	}
	return nil
}
