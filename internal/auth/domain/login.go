package domain

// LoginOutcome says which state the login flow landed in after credential
// verification. Exactly one of the three applies.
type LoginOutcome string

const (
	// OutcomeAuthenticated: no second factor needed, session issued.
	OutcomeAuthenticated LoginOutcome = "authenticated"
	// OutcomeChallengeCode: enrolled authenticator, caller must submit a code.
	OutcomeChallengeCode LoginOutcome = "challenge_code"
	// OutcomeChallengeSetup: global 2FA is on but the account has no
	// authenticator, caller must complete enrollment before a session exists.
	OutcomeChallengeSetup LoginOutcome = "challenge_setup"
)

// LoginResult is what Login returns. Token is a full session token for
// OutcomeAuthenticated and a temporary token for the two challenge outcomes.
type LoginResult struct {
	Outcome LoginOutcome
	Token   string
	Profile *Profile // populated only when authenticated
}

// Enrollment is the provisioning material for a fresh authenticator. The
// secret is not persisted until enrollment completes with a valid code.
type Enrollment struct {
	Secret     string // base32
	OTPAuthURL string // otpauth:// URI
	QRCode     string // PNG data URL of the provisioning QR
}

// SessionGrant is a completed login: a session token plus the account profile
// and, when enrollment just finished, the one-time plaintext backup codes.
type SessionGrant struct {
	Token       string
	Profile     Profile
	BackupCodes []string // plaintext, returned exactly once
}
