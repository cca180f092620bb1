package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("generates unique url-safe tokens", func(t *testing.T) {
		a, err := cryptox.GenerateToken(cryptox.TokenSize128)
		require.NoError(t, err)
		b, err := cryptox.GenerateToken(cryptox.TokenSize128)
		require.NoError(t, err)

		require.NotEqual(t, a, b)
		require.Len(t, a, 22) // 16 bytes base64url, no padding
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := cryptox.GenerateToken(0)
		require.Error(t, err)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := cryptox.FingerprintToken("123456")
	require.Equal(t, fp, cryptox.FingerprintToken("123456"), "fingerprint must be deterministic")
	require.NotEqual(t, fp, cryptox.FingerprintToken("123457"))
	require.Len(t, fp, 43)
}

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	for range 50 {
		code, err := cryptox.GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.Regexp(t, `^\d{6}$`, code)
	}

	_, err := cryptox.GenerateNumericCode(0)
	require.Error(t, err)
}
