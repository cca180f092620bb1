package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/slogx"
)

// LoginService drives the login state machine: password check, the optional
// second-factor challenge or forced enrollment, and the final session grant.
//
// last_login is written only when a flow fully completes, so an account stuck
// at the challenge stage never looks like it signed in.
type LoginService struct {
	Store     store.Store
	Tokens    *TokenService
	TwoFactor *TwoFactorService
}

// Login verifies credentials and decides which state the flow lands in.
// The system policy is the gate: while the global toggle is off every
// account goes straight to a session; with it on, enrolled accounts get a
// code challenge and unenrolled ones are forced through setup.
func (s *LoginService) Login(ctx context.Context, identifier, password string) (domain.LoginResult, error) {
	if identifier == "" {
		return domain.LoginResult{}, domain.Validationf("identifier is required")
	}
	if password == "" {
		return domain.LoginResult{}, domain.Validationf("password is required")
	}

	acct, err := s.Store.Accounts().GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same error as a wrong password, so usernames can't be probed.
			return domain.LoginResult{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	policy, err := s.Store.Policy().Get(ctx)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("read policy: %w", err)
	}

	switch {
	case !policy.TwoFactorEnabled:
		// Globally off: sessions are granted directly. Per-account
		// enrollment data stays untouched for when the toggle returns.
		grant, err := s.grantSession(ctx, &acct)
		if err != nil {
			return domain.LoginResult{}, err
		}
		return domain.LoginResult{
			Outcome: domain.OutcomeAuthenticated,
			Token:   grant.Token,
			Profile: &grant.Profile,
		}, nil

	case acct.TOTPEnabled && acct.TOTPSecret != nil:
		token, err := s.Tokens.IssueTemporary(&acct)
		if err != nil {
			return domain.LoginResult{}, err
		}
		return domain.LoginResult{Outcome: domain.OutcomeChallengeCode, Token: token}, nil

	default:
		token, err := s.Tokens.IssueTemporary(&acct)
		if err != nil {
			return domain.LoginResult{}, err
		}
		return domain.LoginResult{Outcome: domain.OutcomeChallengeSetup, Token: token}, nil
	}
}

// VerifyChallenge completes a code-challenge login. The account comes from a
// verified temporary token. A TOTP code is tried first, then single-use
// backup codes; either one finishes the login.
func (s *LoginService) VerifyChallenge(ctx context.Context, accountID, code string) (domain.SessionGrant, error) {
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

	if !acct.TOTPEnabled || acct.TOTPSecret == nil {
		return domain.SessionGrant{}, domain.ErrNotEnabled
	}

	if !s.TwoFactor.VerifyCode(*acct.TOTPSecret, code) {
		// Fall back to backup codes. Redemption deletes the row, so each
		// code works exactly once.
		redeemed, err := s.Store.BackupCodes().Redeem(ctx, acct.ID, cryptox.FingerprintToken(code))
		if err != nil {
			return domain.SessionGrant{}, fmt.Errorf("redeem backup code: %w", err)
		}
		if !redeemed {
			return domain.SessionGrant{}, domain.ErrCodeInvalid
		}
		slogx.FromContext(ctx).Info("backup code redeemed", "account_id", acct.ID)
	}

	return s.grantSession(ctx, &acct)
}

// BeginEnrollment produces fresh provisioning material for an authenticator.
// The secret is NOT persisted; CompleteEnrollment receives it back together
// with a code proving the authenticator actually holds it.
func (s *LoginService) BeginEnrollment(ctx context.Context, accountID string) (domain.Enrollment, error) {
	acct, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Enrollment{}, domain.ErrNotFound
		}
		return domain.Enrollment{}, fmt.Errorf("lookup account: %w", err)
	}

	if acct.TOTPEnabled {
		return domain.Enrollment{}, fmt.Errorf("%w: two-factor already enabled", domain.ErrConflict)
	}

	policy, err := s.Store.Policy().Get(ctx)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("read policy: %w", err)
	}

	return s.TwoFactor.GenerateEnrollment(policy.AppName, acct.Email)
}

// CompleteEnrollment validates the code against the caller-supplied secret,
// then persists the secret and a fresh set of backup codes atomically. When
// issueSession is true (the mandatory-setup login path) it also finishes the
// login; the authenticated settings path passes false and keeps its session.
func (s *LoginService) CompleteEnrollment(ctx context.Context, accountID, secret, code string, issueSession bool) (domain.SessionGrant, error) {
	if secret == "" {
		return domain.SessionGrant{}, domain.Validationf("secret is required")
	}
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

	if acct.TOTPEnabled {
		return domain.SessionGrant{}, fmt.Errorf("%w: two-factor already enabled", domain.ErrConflict)
	}

	if !s.TwoFactor.VerifyCode(secret, code) {
		return domain.SessionGrant{}, domain.ErrCodeInvalid
	}

	codes, hashes, err := s.TwoFactor.GenerateBackupCodes()
	if err != nil {
		return domain.SessionGrant{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().EnableTOTP(ctx, acct.ID, secret); err != nil {
			return fmt.Errorf("persist TOTP secret: %w", err)
		}
		if err := tx.BackupCodes().Replace(ctx, acct.ID, hashes); err != nil {
			return fmt.Errorf("store backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.SessionGrant{}, err
	}

	acct.TOTPEnabled = true
	acct.TOTPSecret = &secret

	if !issueSession {
		return domain.SessionGrant{Profile: domain.NewProfile(&acct), BackupCodes: codes}, nil
	}

	grant, err := s.grantSession(ctx, &acct)
	if err != nil {
		return domain.SessionGrant{}, err
	}
	grant.BackupCodes = codes
	return grant, nil
}

// Disable removes the account's second factor and its backup codes. Callers
// already hold a full session; per-account state goes regardless of the
// global policy toggle.
func (s *LoginService) Disable(ctx context.Context, accountID string) error {
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

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAll(ctx, acct.ID); err != nil {
			return fmt.Errorf("delete backup codes: %w", err)
		}
		if err := tx.Accounts().DisableTOTP(ctx, acct.ID); err != nil {
			return fmt.Errorf("disable TOTP: %w", err)
		}
		return nil
	})
}

// grantSession finishes a login: mints the session token and stamps
// last_login. Every path that completes a flow funnels through here.
func (s *LoginService) grantSession(ctx context.Context, acct *domain.Account) (domain.SessionGrant, error) {
	token, err := s.Tokens.IssueSession(acct)
	if err != nil {
		return domain.SessionGrant{}, err
	}

	now := time.Now().UTC()
	if err := s.Store.Accounts().UpdateLastLogin(ctx, acct.ID, now); err != nil {
		return domain.SessionGrant{}, fmt.Errorf("update last login: %w", err)
	}
	acct.LastLogin = &now

	return domain.SessionGrant{Token: token, Profile: domain.NewProfile(acct)}, nil
}
