package service

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestGenerateEnrollment(t *testing.T) {
	t.Parallel()

	svc := &TwoFactorService{}

	enrollment, err := svc.GenerateEnrollment("Concierge", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.OTPAuthURL, "otpauth://totp/")
	require.Contains(t, enrollment.OTPAuthURL, "Concierge")
	require.Contains(t, enrollment.QRCode, "data:image/png;base64,")

	// Two enrollments never share a secret.
	again, err := svc.GenerateEnrollment("Concierge", "alice@example.com")
	require.NoError(t, err)
	require.NotEqual(t, enrollment.Secret, again.Secret)
}

func TestVerifyCode(t *testing.T) {
	t.Parallel()

	svc := &TwoFactorService{}
	enrollment, err := svc.GenerateEnrollment("Concierge", "bob@example.com")
	require.NoError(t, err)

	t.Run("accepts the current code", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)
		require.True(t, svc.VerifyCode(enrollment.Secret, code))
	})

	t.Run("accepts codes within the skew window", func(t *testing.T) {
		behind, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(-60*time.Second))
		require.NoError(t, err)
		require.True(t, svc.VerifyCode(enrollment.Secret, behind))

		ahead, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(60*time.Second))
		require.NoError(t, err)
		require.True(t, svc.VerifyCode(enrollment.Secret, ahead))
	})

	t.Run("rejects codes outside the window", func(t *testing.T) {
		stale, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(-5*time.Minute))
		require.NoError(t, err)
		require.False(t, svc.VerifyCode(enrollment.Secret, stale))
	})

	t.Run("rejects malformed input without panicking", func(t *testing.T) {
		require.False(t, svc.VerifyCode(enrollment.Secret, ""))
		require.False(t, svc.VerifyCode(enrollment.Secret, "abc"))
		require.False(t, svc.VerifyCode(enrollment.Secret, "1234567890"))
		require.False(t, svc.VerifyCode("not base32 at all", "123456"))
	})
}

func TestGenerateBackupCodes(t *testing.T) {
	t.Parallel()

	svc := &TwoFactorService{}

	codes, hashes, err := svc.GenerateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, 10)
	require.Len(t, hashes, 10)

	seen := make(map[string]struct{})
	for i, code := range codes {
		require.NotEmpty(t, code)
		require.NotEqual(t, code, hashes[i], "stored form must be a fingerprint, not plaintext")
		_, dup := seen[code]
		require.False(t, dup, "backup codes must be unique")
		seen[code] = struct{}{}
	}
}
