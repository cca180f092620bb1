package domain

import "time"

// SystemPolicy is the singleton system configuration row. It is created
// lazily with defaults on first read.
//
// TwoFactorEnabled is the global toggle: when on, accounts without an
// enrolled authenticator are forced through enrollment at login. The toggle
// never touches per-account enrollment state; accounts that enrolled while it
// was on keep being challenged after it is switched off.
type SystemPolicy struct {
	TwoFactorEnabled bool
	AppName          string  // issuer label shown in authenticator apps
	RecoverySenderID *string // designated outbound mailbox for codes
	UpdatedAt        time.Time
}

// DefaultAppName is used when no policy row exists yet.
const DefaultAppName = "Concierge"
