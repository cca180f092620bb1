package domain

import "time"

// Account is a backoffice user record. Username and email are unique
// case-insensitively; lookups accept either.
type Account struct {
	ID           string
	Username     string
	Email        string
	Name         string
	LastName     string
	PasswordHash string // argon2id encoded

	LastLogin *time.Time // set only when a login flow fully completes

	// Two-factor enrollment. TOTPEnabled implies TOTPSecret is non-nil.
	TOTPSecret  *string // base32 encoded
	TOTPEnabled bool

	// Outstanding 2FA recovery code (hash + expiry travel together).
	RecoveryCodeHash    *string
	RecoveryCodeExpires *time.Time

	// Outstanding password-reset code (hash + expiry travel together).
	PasswordResetHash    *string
	PasswordResetExpires *time.Time

	Roles []string // resolved role names, sorted

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the account holds the given role name.
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Profile is the account shape returned to API callers. Password hashes and
// second-factor material never leave the service layer.
type Profile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	LastName  string     `json:"last_name"`
	Roles     []string   `json:"roles"`
	TOTP      bool       `json:"two_factor_enabled"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewProfile projects an Account into its API-safe form.
func NewProfile(a *Account) Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Name:      a.Name,
		LastName:  a.LastName,
		Roles:     a.Roles,
		TOTP:      a.TOTPEnabled,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
	}
}
