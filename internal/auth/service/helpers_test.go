package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/internal/auth/mail"
	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/aussiebroadwan/concierge/pkg/idx"
	"github.com/aussiebroadwan/concierge/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper.key"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTokenService(t *testing.T) *TokenService {
	t.Helper()

	pemKey, err := jwtx.GenerateKeyPEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSigner(pemKey)
	require.NoError(t, err)

	return &TokenService{
		Signer:   signer,
		Verifier: jwtx.NewVerifier(signer.PublicKey(), "concierge"),
		Issuer:   "concierge",
	}
}

func seedAccount(t *testing.T, st store.Store, username string) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	acct := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		Name:         "Test",
		LastName:     "User",
		PasswordHash: hash,
	}
	require.NoError(t, st.Accounts().Create(context.Background(), acct))

	got, err := st.Accounts().GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	return got
}

func seedSender(t *testing.T, st store.Store) domain.EmailSender {
	t.Helper()

	sender := domain.EmailSender{
		ID:          idx.New().String(),
		Address:     "noreply@example.com",
		DisplayName: "Concierge",
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		Username:    "noreply@example.com",
		Password:    "secret",
		UseTLS:      true,
	}
	require.NoError(t, st.Senders().Create(context.Background(), sender))
	return sender
}

func setGlobalTwoFactor(t *testing.T, st store.Store, enabled bool) {
	t.Helper()

	ctx := context.Background()
	policy, err := st.Policy().Get(ctx)
	require.NoError(t, err)
	policy.TwoFactorEnabled = enabled
	require.NoError(t, st.Policy().Update(ctx, policy))
}

// mockMailer records outgoing messages and can simulate SMTP failures.
type mockMailer struct {
	sent []mail.Message
	fail bool
}

func (m *mockMailer) Send(_ context.Context, _ domain.EmailSender, msg mail.Message) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}
