package credit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/store"
)

// Ledger applies balance mutations to an already-loaded user inside a
// caller's transaction. It only writes, so callers must finish their
// reads first.
type Ledger struct {
	now func() time.Time
}

// NewLedger creates a ledger using the wall clock
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// NewLedgerWithClock creates a ledger with an injected clock
func NewLedgerWithClock(now func() time.Time) *Ledger {
	return &Ledger{now: now}
}

// DeductTx spends one credit and returns the ledger entry id. Sends made
// against an active unlimited balance are recorded but never counted in
// used, so they cost nothing once the sentinel is released.
func (l *Ledger) DeductTx(ctx context.Context, tx store.Tx, u *user.User, reason string, ref Ref) (string, error) {
	now := l.now().UTC()

	if u.Credits.IsUnlimited() {
		if !u.IsPremiumActive(now) {
			return "", &MembershipExpiredError{ExpiredAt: expiredAt(u)}
		}
	} else {
		if u.Credits.Balance < 1 {
			return "", &InsufficientCreditsError{Balance: u.Credits.Balance, Required: 1}
		}
		u.Credits.Balance--
		u.Credits.Used++
	}

	return l.write(tx, u, TxTypeDeduction, 1, reason, ref, now)
}

// RefundTx returns one credit. It is not idempotent on its own; callers
// invoke it at most once per terminal transition. A refund of an unlimited
// deduction (ref.Unlimited) only records the entry.
func (l *Ledger) RefundTx(ctx context.Context, tx store.Tx, u *user.User, reason string, ref Ref) error {
	now := l.now().UTC()

	if !ref.Unlimited {
		if !u.Credits.IsUnlimited() {
			u.Credits.Balance++
		}
		if u.Credits.Used > 0 {
			u.Credits.Used--
		}
	}

	_, err := l.write(tx, u, TxTypeRefund, 1, reason, ref, now)
	return err
}

// GrantTx adds purchased credits. An active unlimited balance keeps the
// sentinel and only lifetimeEarned grows.
func (l *Ledger) GrantTx(ctx context.Context, tx store.Tx, u *user.User, amount int, reason string, ref Ref) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	now := l.now().UTC()

	if !u.Credits.IsUnlimited() {
		u.Credits.Balance += amount
	}
	u.Credits.LifetimeEarned += amount

	return l.write(tx, u, TxTypeGrant, amount, reason, ref, now)
}

// SetUnlimited puts the premium sentinel on the balance
func (l *Ledger) SetUnlimited(u *user.User) {
	u.Credits.Balance = user.UnlimitedBalance
}

// ReleaseUnlimited replaces a lapsed sentinel with the finite balance the
// user has actually earned. used only counts finite-era deductions, so the
// result is what the user held before premium plus any grants since.
func (l *Ledger) ReleaseUnlimited(u *user.User) {
	if !u.Credits.IsUnlimited() {
		return
	}
	if u.Credits.LifetimeEarned < u.Credits.Used {
		u.Credits.LifetimeEarned = u.Credits.Used
	}
	u.Credits.Balance = u.Credits.LifetimeEarned - u.Credits.Used
}

func (l *Ledger) write(tx store.Tx, u *user.User, typ TxType, amount int, reason string, ref Ref, now time.Time) (string, error) {
	if err := user.SaveTx(tx, u, now); err != nil {
		return "", err
	}

	entry := Transaction{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		Type:         typ,
		Amount:       amount,
		Reason:       reason,
		EngagementID: ref.EngagementID,
		PostID:       ref.PostID,
		PaymentID:    ref.PaymentID,
		BalanceAfter: u.Credits.Balance,
		Unlimited:    u.Credits.IsUnlimited() || ref.Unlimited,
		CreatedAt:    now,
	}
	if err := tx.Create(store.CollectionCreditTransactions, entry.ID, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func expiredAt(u *user.User) time.Time {
	if u.Membership.ExpiresAt != nil {
		return *u.Membership.ExpiresAt
	}
	return time.Time{}
}
