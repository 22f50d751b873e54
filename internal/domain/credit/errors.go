package credit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientCredits is returned when user doesn't have enough credits
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrMembershipExpired is returned when an unlimited balance is used
	// after the premium membership lapsed
	ErrMembershipExpired = errors.New("membership expired")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")
)

// InsufficientCreditsError carries what the client needs to offer a top-up
type InsufficientCreditsError struct {
	Balance  int
	Required int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: balance %d, required %d", e.Balance, e.Required)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// MembershipExpiredError carries the lapsed expiry for a renewal prompt
type MembershipExpiredError struct {
	ExpiredAt time.Time
}

func (e *MembershipExpiredError) Error() string {
	return fmt.Sprintf("membership expired at %s", e.ExpiredAt.Format(time.RFC3339))
}

func (e *MembershipExpiredError) Is(target error) bool {
	return target == ErrMembershipExpired
}
