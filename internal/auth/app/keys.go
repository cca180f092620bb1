package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/concierge/pkg/jwtx"
)

// InitAuthKeys loads the Ed25519 signing key from cfg.KeyFile, generating and
// persisting one on first start. With no key file configured an ephemeral key
// is used instead: every restart invalidates all outstanding tokens.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.Signer, *jwtx.Verifier, error) {
	var pemKey []byte

	switch {
	case cfg.KeyFile == "":
		key, err := jwtx.GenerateKeyPEM()
		if err != nil {
			return nil, nil, fmt.Errorf("generate signing key: %w", err)
		}
		pemKey = key
		logger.Warn("no key file configured, using an ephemeral signing key; tokens will not survive a restart")

	default:
		key, err := os.ReadFile(cfg.KeyFile)
		switch {
		case err == nil:
			pemKey = key
			logger.Info("signing key loaded", "path", cfg.KeyFile)

		case errors.Is(err, os.ErrNotExist):
			key, err = jwtx.GenerateKeyPEM()
			if err != nil {
				return nil, nil, fmt.Errorf("generate signing key: %w", err)
			}
			if err := os.WriteFile(cfg.KeyFile, key, 0o600); err != nil {
				return nil, nil, fmt.Errorf("persist signing key: %w", err)
			}
			pemKey = key
			logger.Info("signing key generated", "path", cfg.KeyFile)

		default:
			return nil, nil, fmt.Errorf("read signing key: %w", err)
		}
	}

	signer, err := jwtx.NewSigner(pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("load signing key: %w", err)
	}
	if err := signer.Validate(); err != nil {
		return nil, nil, err
	}

	return signer, jwtx.NewVerifier(signer.PublicKey(), cfg.Issuer), nil
}
