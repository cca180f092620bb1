package domain

import (
	"errors"
	"fmt"
)

// Shared error taxonomy. Services return these (wrapped with context via %w)
// and the HTTP layer maps them onto status codes in one place, so handlers
// never branch on error strings.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrCodeInvalid        = errors.New("code invalid")
	ErrCodeExpired        = errors.New("code expired")
	ErrDeliveryFailed     = errors.New("delivery failed")
	ErrPolicyViolation    = errors.New("policy violation")
	ErrNotEnabled         = errors.New("two-factor not enabled")
)

// RateLimitedError reports how long a caller must wait before retrying a
// recovery or password-reset request. Minutes is rounded down, minimum 1.
type RateLimitedError struct {
	Minutes int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry in %d minute(s)", e.Minutes)
}

// Validationf wraps ErrValidation with a field-level message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
