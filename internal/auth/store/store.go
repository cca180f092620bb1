package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop people from accidentally doing transactions
// within transactions.
type Store interface {
	Accounts() Accounts
	Roles() Roles
	Policy() Policy
	Senders() Senders
	Domains() Domains
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., completing
	// a two-factor enrollment). The caller MUST call Commit() or Rollback()
	// on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns an account by id, roles resolved.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByIdentifier looks up by username OR email, case-insensitively,
	// in a single query. Used during login and password reset.
	GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error)

	// List returns all accounts ordered by username.
	List(ctx context.Context) ([]domain.Account, error)

	// Create inserts a new account (id is provided by app via ULID).
	// Role membership is written separately via ReplaceRoles.
	Create(ctx context.Context, a domain.Account) error

	// UpdateProfile mutates the mutable profile fields and bumps updated_at.
	UpdateProfile(ctx context.Context, id, email, name, lastName string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id, newHash string) error

	// UpdateLastLogin records a completed login.
	UpdateLastLogin(ctx context.Context, id string, when time.Time) error

	// Delete cascades to account_roles and backup_codes (per schema).
	Delete(ctx context.Context, id string) error

	// EnableTOTP persists the secret and flips totp_enabled on.
	EnableTOTP(ctx context.Context, id, secret string) error

	// DisableTOTP clears the secret and flips totp_enabled off.
	DisableTOTP(ctx context.Context, id string) error

	// SetRecoveryCode writes the outstanding 2FA recovery code pair.
	// Pass nils to clear it (also the rollback path on delivery failure).
	SetRecoveryCode(ctx context.Context, id string, hash *string, expires *time.Time) error

	// SetPasswordReset writes the outstanding password-reset code pair.
	// Pass nils to clear it.
	SetPasswordReset(ctx context.Context, id string, hash *string, expires *time.Time) error

	// ClearExpiredCodes nulls out recovery and reset pairs whose expiry is
	// before olderThan (housekeeping). The stored expiry doubles as the
	// issuance record for the request rate limit, so callers pass a cutoff
	// old enough that the request window has passed too, not just the
	// code's validity. Returns the number of accounts touched.
	ClearExpiredCodes(ctx context.Context, olderThan time.Time) (int64, error)

	// ReplaceRoles rewrites the account's role memberships.
	ReplaceRoles(ctx context.Context, accountID string, roleIDs []string) error

	// CountWithRole returns how many accounts hold the named role.
	// Admin CRUD uses this to enforce the last-admin invariant.
	CountWithRole(ctx context.Context, roleName string) (int, error)

	// IsEmpty returns true if there are no accounts.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetByID fetches a role by its ID, member count included.
	GetByID(ctx context.Context, id string) (domain.Role, error)

	// GetByName fetches a role by its (case-insensitive) name.
	GetByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles ordered by name.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// Create inserts a new role (id is ULID).
	Create(ctx context.Context, r domain.Role) error

	// Rename changes the role name and bumps updated_at.
	Rename(ctx context.Context, id, name string) error

	// Delete removes a role. Fails while accounts still reference it.
	Delete(ctx context.Context, id string) error
}

type Policy interface {
	// Get returns the singleton system policy, creating the default row
	// on first read.
	Get(ctx context.Context) (domain.SystemPolicy, error)

	// Update overwrites the singleton row.
	Update(ctx context.Context, p domain.SystemPolicy) error
}

type Senders interface {
	GetByID(ctx context.Context, id string) (domain.EmailSender, error)
	List(ctx context.Context) ([]domain.EmailSender, error)
	Create(ctx context.Context, s domain.EmailSender) error
	Update(ctx context.Context, s domain.EmailSender) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Domains interface {
	List(ctx context.Context) ([]domain.HostedDomain, error)
	Create(ctx context.Context, d domain.HostedDomain) error
	Delete(ctx context.Context, id string) error
}

type BackupCodes interface {
	// Replace deletes any existing codes for the account and stores the
	// fresh set of hashes in one shot.
	Replace(ctx context.Context, accountID string, hashes []string) error

	// Redeem deletes the matching code row and reports whether one existed.
	// A code is single-use: once redeemed it never matches again.
	Redeem(ctx context.Context, accountID, hash string) (bool, error)

	// DeleteAll removes all backup codes for an account.
	DeleteAll(ctx context.Context, accountID string) error

	// Count returns the number of unredeemed codes for an account.
	Count(ctx context.Context, accountID string) (int, error)
}
