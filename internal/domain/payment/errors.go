package payment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput                = errors.New("invalid payment input")
	ErrSignatureVerificationFailed = errors.New("signature verification failed")
	ErrPaymentsUnavailable         = errors.New("payments are not configured")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
