package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/idx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func newLoginService(t *testing.T) (*LoginService, *TokenService) {
	t.Helper()

	tokens := newTokenService(t)
	return &LoginService{
		Store:     newTestStore(t),
		Tokens:    tokens,
		TwoFactor: &TwoFactorService{},
	}, tokens
}

// enroll wires up a working authenticator for the account and returns its
// secret and the plaintext backup codes.
func enroll(t *testing.T, svc *LoginService, accountID string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	enrollment, err := svc.BeginEnrollment(ctx, accountID)
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	grant, err := svc.CompleteEnrollment(ctx, accountID, enrollment.Secret, code, false)
	require.NoError(t, err)
	require.Len(t, grant.BackupCodes, 10)

	return enrollment.Secret, grant.BackupCodes
}

func TestLoginDirect(t *testing.T) {
	svc, tokens := newLoginService(t)
	ctx := context.Background()
	acct := seedAccount(t, svc.Store, "alice")

	t.Run("valid credentials issue a session", func(t *testing.T) {
		res, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeAuthenticated, res.Outcome)
		require.NotNil(t, res.Profile)

		claims, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		require.False(t, claims.Temp)
		require.Equal(t, acct.ID, claims.Subject)

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLogin, "completing a login must stamp last_login")
	})

	t.Run("email works as identifier, any case", func(t *testing.T) {
		res, err := svc.Login(ctx, "ALICE@Example.COM", testPassword)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeAuthenticated, res.Outcome)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)

		_, err = svc.Login(ctx, "nobody", testPassword)
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("empty inputs are rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, "", testPassword)
		require.ErrorIs(t, err, domain.ErrValidation)
		_, err = svc.Login(ctx, "alice", "")
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestLoginChallengeStates(t *testing.T) {
	svc, tokens := newLoginService(t)
	ctx := context.Background()

	t.Run("global toggle forces setup for unenrolled accounts", func(t *testing.T) {
		seedAccount(t, svc.Store, "bob")
		setGlobalTwoFactor(t, svc.Store, true)

		res, err := svc.Login(ctx, "bob", testPassword)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeChallengeSetup, res.Outcome)

		claims, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		require.True(t, claims.Temp)

		// No session yet, so no last_login either.
		got, err := svc.Store.Accounts().GetByIdentifier(ctx, "bob")
		require.NoError(t, err)
		require.Nil(t, got.LastLogin)
	})

	t.Run("enrolled accounts are challenged for a code", func(t *testing.T) {
		acct := seedAccount(t, svc.Store, "carol")
		enroll(t, svc, acct.ID)
		setGlobalTwoFactor(t, svc.Store, true)

		res, err := svc.Login(ctx, "carol", testPassword)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeChallengeCode, res.Outcome)

		claims, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		require.True(t, claims.Temp)
	})

	t.Run("toggle off sends enrolled accounts straight to a session", func(t *testing.T) {
		setGlobalTwoFactor(t, svc.Store, false)

		res, err := svc.Login(ctx, "carol", testPassword)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeAuthenticated, res.Outcome)
		require.NotNil(t, res.Profile)

		claims, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		require.False(t, claims.Temp)

		// Enrollment data must survive the toggle flip.
		got, err := svc.Store.Accounts().GetByIdentifier(ctx, "carol")
		require.NoError(t, err)
		require.True(t, got.TOTPEnabled)
		require.NotNil(t, got.TOTPSecret)
		require.NotNil(t, got.LastLogin)
	})
}

func TestLoginIdentifierPrecedence(t *testing.T) {
	svc, _ := newLoginService(t)
	ctx := context.Background()

	owner := seedAccount(t, svc.Store, "mallory") // email mallory@example.com

	// A second account whose username collides with the first one's email.
	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)
	squatter := domain.Account{
		ID:           idx.New().String(),
		Username:     "mallory@example.com",
		Email:        "other@example.com",
		Name:         "Test",
		LastName:     "User",
		PasswordHash: hash,
	}
	require.NoError(t, svc.Store.Accounts().Create(ctx, squatter))

	got, err := svc.Store.Accounts().GetByIdentifier(ctx, "mallory@example.com")
	require.NoError(t, err)
	require.Equal(t, squatter.ID, got.ID, "an exact username match must win over an email match")

	got, err = svc.Store.Accounts().GetByIdentifier(ctx, "mallory")
	require.NoError(t, err)
	require.Equal(t, owner.ID, got.ID)
}

func TestVerifyChallenge(t *testing.T) {
	svc, tokens := newLoginService(t)
	ctx := context.Background()
	acct := seedAccount(t, svc.Store, "dave")
	secret, backupCodes := enroll(t, svc, acct.ID)

	t.Run("valid TOTP code completes the login", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		grant, err := svc.VerifyChallenge(ctx, acct.ID, code)
		require.NoError(t, err)

		claims, err := tokens.Verify(grant.Token)
		require.NoError(t, err)
		require.False(t, claims.Temp)

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLogin)
	})

	t.Run("garbage code is rejected", func(t *testing.T) {
		_, err := svc.VerifyChallenge(ctx, acct.ID, "000000")
		require.ErrorIs(t, err, domain.ErrCodeInvalid)

		_, err = svc.VerifyChallenge(ctx, acct.ID, "not-a-code")
		require.ErrorIs(t, err, domain.ErrCodeInvalid)
	})

	t.Run("backup code works exactly once", func(t *testing.T) {
		grant, err := svc.VerifyChallenge(ctx, acct.ID, backupCodes[0])
		require.NoError(t, err)
		require.NotEmpty(t, grant.Token)

		_, err = svc.VerifyChallenge(ctx, acct.ID, backupCodes[0])
		require.ErrorIs(t, err, domain.ErrCodeInvalid)
	})

	t.Run("unenrolled account cannot be challenged", func(t *testing.T) {
		other := seedAccount(t, svc.Store, "erin")
		_, err := svc.VerifyChallenge(ctx, other.ID, "123456")
		require.ErrorIs(t, err, domain.ErrNotEnabled)
	})
}

func TestEnrollment(t *testing.T) {
	svc, tokens := newLoginService(t)
	ctx := context.Background()

	t.Run("begin does not persist the secret", func(t *testing.T) {
		acct := seedAccount(t, svc.Store, "frank")

		enrollment, err := svc.BeginEnrollment(ctx, acct.ID)
		require.NoError(t, err)
		require.NotEmpty(t, enrollment.Secret)
		require.Contains(t, enrollment.OTPAuthURL, "otpauth://totp/")
		require.Contains(t, enrollment.QRCode, "data:image/png;base64,")

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.Nil(t, got.TOTPSecret)
		require.False(t, got.TOTPEnabled)
	})

	t.Run("complete with wrong code persists nothing", func(t *testing.T) {
		acct := seedAccount(t, svc.Store, "grace")
		enrollment, err := svc.BeginEnrollment(ctx, acct.ID)
		require.NoError(t, err)

		_, err = svc.CompleteEnrollment(ctx, acct.ID, enrollment.Secret, "000000", true)
		require.ErrorIs(t, err, domain.ErrCodeInvalid)

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.False(t, got.TOTPEnabled)
	})

	t.Run("complete on the login path issues a session", func(t *testing.T) {
		acct := seedAccount(t, svc.Store, "heidi")
		enrollment, err := svc.BeginEnrollment(ctx, acct.ID)
		require.NoError(t, err)

		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)

		grant, err := svc.CompleteEnrollment(ctx, acct.ID, enrollment.Secret, code, true)
		require.NoError(t, err)
		require.Len(t, grant.BackupCodes, 10)

		claims, err := tokens.Verify(grant.Token)
		require.NoError(t, err)
		require.False(t, claims.Temp)

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.True(t, got.TOTPEnabled)
		require.NotNil(t, got.LastLogin)
	})

	t.Run("double enrollment is refused", func(t *testing.T) {
		acct := seedAccount(t, svc.Store, "ivan")
		enroll(t, svc, acct.ID)

		_, err := svc.BeginEnrollment(ctx, acct.ID)
		require.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestDisableTwoFactor(t *testing.T) {
	svc, _ := newLoginService(t)
	ctx := context.Background()
	acct := seedAccount(t, svc.Store, "judy")
	enroll(t, svc, acct.ID)

	require.NoError(t, svc.Disable(ctx, acct.ID))

	got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
	require.NoError(t, err)
	require.False(t, got.TOTPEnabled)
	require.Nil(t, got.TOTPSecret)

	count, err := svc.Store.BackupCodes().Count(ctx, acct.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	require.ErrorIs(t, svc.Disable(ctx, acct.ID), domain.ErrNotEnabled)
}
