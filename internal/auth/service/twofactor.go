package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10                   // Number of backup codes per enrollment
	backupCodeBytes = cryptox.TokenSize128 // 128-bit entropy per backup code

	totpPeriod = 30 // seconds per TOTP step
	totpSkew   = 2  // accepted steps either side of now (~±60s clock drift)

	qrImageSize = 200 // provisioning QR edge length in pixels
)

// TwoFactorService is the TOTP engine: secret generation, code checks and
// backup code material. It is stateless; persistence belongs to the callers.
type TwoFactorService struct{}

// GenerateEnrollment creates a fresh TOTP secret for the given account label
// and renders the provisioning QR as a PNG data URL. Nothing is persisted;
// the secret only sticks once the caller proves possession with a valid code.
func (s *TwoFactorService) GenerateEnrollment(issuer, account string) (domain.Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("render QR image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.Enrollment{}, fmt.Errorf("encode QR png: %w", err)
	}

	return domain.Enrollment{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyCode checks a 6-digit code against the secret, accepting totpSkew
// steps of clock drift either side. Malformed codes or secrets simply
// report false; there is nothing for a caller to distinguish.
func (s *TwoFactorService) VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}

// GenerateBackupCodes returns backupCodeCount fresh codes in plaintext along
// with their fingerprints. Only the fingerprints are ever stored; plaintext
// is shown to the user exactly once.
func (s *TwoFactorService) GenerateBackupCodes() (codes []string, hashes []string, err error) {
	codes = make([]string, backupCodeCount)
	hashes = make([]string, backupCodeCount)
	for i := range backupCodeCount {
		code, err := cryptox.GenerateToken(backupCodeBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes[i] = code
		hashes[i] = cryptox.FingerprintToken(code)
	}
	return codes, hashes, nil
}
