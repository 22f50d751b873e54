package credit_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/store"
	"github.com/gigboard/gigboard-api/internal/store/memory"
)

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...memory.Option) (*credit.Service, *memory.Store) {
	t.Helper()
	s := memory.New(opts...)
	return credit.NewService(s, credit.NewLedgerWithClock(func() time.Time { return fixedNow })), s
}

func seedUser(t *testing.T, s store.Store, id string, balance int) *user.User {
	t.Helper()
	u := user.New(id, fixedNow)
	u.Credits = user.Credits{Balance: balance, LifetimeEarned: balance}
	if err := s.Set(context.Background(), store.CollectionUsers, id, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedPremium(t *testing.T, s store.Store, id string, expiresAt time.Time) {
	t.Helper()
	u := user.New(id, fixedNow)
	started := expiresAt.Add(-30 * 24 * time.Hour)
	u.Membership.Tier = user.TierPremium
	u.Membership.StartedAt = &started
	u.Membership.ExpiresAt = &expiresAt
	u.Credits = user.Credits{Balance: user.UnlimitedBalance, LifetimeEarned: 3}
	if err := s.Set(context.Background(), store.CollectionUsers, id, u); err != nil {
		t.Fatalf("seed premium: %v", err)
	}
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

/* =========================
   Test 1: Deduct and refund
   ========================= */

func TestDeductDecrementsBalanceAndRecordsEntry(t *testing.T) {
	svc, s := newService(t)
	seedUser(t, s, "emp", 2)

	entryID, err := svc.Deduct(context.Background(), "emp", credit.ReasonEngagementSent, credit.Ref{EngagementID: "e1"})
	requireNoError(t, err)
	if entryID == "" {
		t.Fatal("expected ledger entry id")
	}

	c, err := svc.Balance(context.Background(), "emp")
	requireNoError(t, err)
	if c.Balance != 1 || c.Used != 1 || c.LifetimeEarned != 2 {
		t.Fatalf("unexpected credits %+v", c)
	}

	var entry credit.Transaction
	requireNoError(t, s.Get(context.Background(), store.CollectionCreditTransactions, entryID, &entry))
	if entry.Type != credit.TxTypeDeduction || entry.Amount != 1 || entry.EngagementID != "e1" || entry.BalanceAfter != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestDeductWithZeroBalanceFails(t *testing.T) {
	svc, s := newService(t)
	seedUser(t, s, "emp", 0)

	_, err := svc.Deduct(context.Background(), "emp", credit.ReasonEngagementSent, credit.Ref{})
	if !errors.Is(err, credit.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	var detail *credit.InsufficientCreditsError
	if !errors.As(err, &detail) || detail.Balance != 0 || detail.Required != 1 {
		t.Fatalf("expected detailed error, got %#v", err)
	}
	if s.Len(store.CollectionCreditTransactions) != 0 {
		t.Fatal("failed deduct must not write a ledger entry")
	}
}

func TestDeductUnknownUser(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Deduct(context.Background(), "ghost", credit.ReasonEngagementSent, credit.Ref{}); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRefundClampsUsedAtZero(t *testing.T) {
	svc, s := newService(t)
	seedUser(t, s, "emp", 1)

	requireNoError(t, svc.Refund(context.Background(), "emp", credit.ReasonWorkerDeclined, credit.Ref{EngagementID: "e1"}))

	c, err := svc.Balance(context.Background(), "emp")
	requireNoError(t, err)
	if c.Used != 0 || c.Balance != 2 {
		t.Fatalf("unexpected credits %+v", c)
	}
}

/* =========================
   Test 2: Balance identity holds across interleavings
   ========================= */

func TestInvariantAcrossRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		svc, s := newService(t)
		start := rng.Intn(5)
		seedUser(t, s, "emp", start)
		outstanding := 0

		for step := 0; step < 40; step++ {
			if outstanding > 0 && rng.Intn(2) == 0 {
				requireNoError(t, svc.Refund(context.Background(), "emp", credit.ReasonEmployerWithdrew, credit.Ref{}))
				outstanding--
			} else {
				_, err := svc.Deduct(context.Background(), "emp", credit.ReasonEngagementSent, credit.Ref{})
				switch {
				case err == nil:
					outstanding++
				case errors.Is(err, credit.ErrInsufficientCredits):
				default:
					t.Fatalf("round %d step %d: %v", round, step, err)
				}
			}

			c, err := svc.Balance(context.Background(), "emp")
			requireNoError(t, err)
			if c.Balance+c.Used != c.LifetimeEarned {
				t.Fatalf("round %d step %d: invariant broken %+v", round, step, c)
			}
			if c.Balance < 0 {
				t.Fatalf("negative balance %+v", c)
			}
		}
	}
}

/* =========================
   Test 3: Concurrency Deduct
   ========================= */

func TestConcurrencyDeduct(t *testing.T) {
	svc, s := newService(t, memory.WithMaxAttempts(200))
	seedUser(t, s, "emp", 5)

	const goroutines = 10
	const expectedSuccess = 5

	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deduct(context.Background(), "emp", credit.ReasonEngagementSent, credit.Ref{})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			if !errors.Is(err, credit.ErrInsufficientCredits) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != expectedSuccess {
		t.Fatalf("expected %d successes, got %d", expectedSuccess, success)
	}
	c, err := svc.Balance(context.Background(), "emp")
	requireNoError(t, err)
	if c.Balance != 0 || c.Used != 5 {
		t.Fatalf("unexpected credits %+v", c)
	}
	if n := s.Len(store.CollectionCreditTransactions); n != expectedSuccess {
		t.Fatalf("expected %d ledger entries, got %d", expectedSuccess, n)
	}
}

/* =========================
   Test 4: Premium sentinel
   ========================= */

func TestPremiumDeductKeepsSentinel(t *testing.T) {
	svc, s := newService(t)
	seedPremium(t, s, "prem", fixedNow.Add(10*24*time.Hour))

	_, err := svc.Deduct(context.Background(), "prem", credit.ReasonEngagementSent, credit.Ref{})
	requireNoError(t, err)

	c, err := svc.Balance(context.Background(), "prem")
	requireNoError(t, err)
	if c.Balance != user.UnlimitedBalance || c.Used != 0 {
		t.Fatalf("unlimited send must not be counted: %+v", c)
	}

	requireNoError(t, svc.Refund(context.Background(), "prem", credit.ReasonWorkerDeclined, credit.Ref{Unlimited: true}))

	c, err = svc.Balance(context.Background(), "prem")
	requireNoError(t, err)
	if c.Balance != user.UnlimitedBalance || c.Used != 0 || c.LifetimeEarned != 3 {
		t.Fatalf("unexpected credits %+v", c)
	}

	entries, err := svc.History(context.Background(), "prem", 10)
	requireNoError(t, err)
	for _, e := range entries {
		if !e.Unlimited {
			t.Fatalf("entry %s should be marked unlimited", e.Type)
		}
	}
}

func TestUnlimitedSendsCostNothingAfterRelease(t *testing.T) {
	svc, s := newService(t)
	seedPremium(t, s, "prem", fixedNow.Add(24*time.Hour))

	for i := 0; i < 30; i++ {
		_, err := svc.Deduct(context.Background(), "prem", credit.ReasonEngagementSent, credit.Ref{})
		requireNoError(t, err)
	}

	var u user.User
	requireNoError(t, s.Get(context.Background(), store.CollectionUsers, "prem", &u))
	credit.NewLedger().ReleaseUnlimited(&u)

	if u.Credits.Balance != 3 || u.Credits.Used != 0 || !u.Credits.Balanced() {
		t.Fatalf("premium sends were charged on release: %+v", u.Credits)
	}
}

func TestFiniteRefundWhileUnlimitedCountsOnRelease(t *testing.T) {
	svc, s := newService(t)
	seedUser(t, s, "emp", 2)

	_, err := svc.Deduct(context.Background(), "emp", credit.ReasonEngagementSent, credit.Ref{EngagementID: "e1"})
	requireNoError(t, err)

	// premium bought while e1 is pending
	var u user.User
	requireNoError(t, s.Get(context.Background(), store.CollectionUsers, "emp", &u))
	ledger := credit.NewLedger()
	ledger.SetUnlimited(&u)
	requireNoError(t, s.Set(context.Background(), store.CollectionUsers, "emp", &u))

	requireNoError(t, svc.Refund(context.Background(), "emp", credit.ReasonWorkerDeclined, credit.Ref{EngagementID: "e1"}))

	requireNoError(t, s.Get(context.Background(), store.CollectionUsers, "emp", &u))
	if u.Credits.Balance != user.UnlimitedBalance || u.Credits.Used != 0 {
		t.Fatalf("unexpected credits %+v", u.Credits)
	}
	ledger.ReleaseUnlimited(&u)
	if u.Credits.Balance != 2 || !u.Credits.Balanced() {
		t.Fatalf("refunded credit lost on release: %+v", u.Credits)
	}
}

func TestLapsedPremiumDeductReportsExpiry(t *testing.T) {
	svc, s := newService(t)
	expires := fixedNow.Add(-time.Hour)
	seedPremium(t, s, "prem", expires)

	_, err := svc.Deduct(context.Background(), "prem", credit.ReasonEngagementSent, credit.Ref{})
	if !errors.Is(err, credit.ErrMembershipExpired) {
		t.Fatalf("expected ErrMembershipExpired, got %v", err)
	}
	var detail *credit.MembershipExpiredError
	if !errors.As(err, &detail) || !detail.ExpiredAt.Equal(expires) {
		t.Fatalf("expected expiry detail, got %#v", err)
	}
}

/* =========================
   Test 5: Grants and release
   ========================= */

func TestGrantAddsToBalanceAndLifetime(t *testing.T) {
	_, s := newService(t)
	seedUser(t, s, "emp", 1)
	ledger := credit.NewLedgerWithClock(func() time.Time { return fixedNow })

	err := s.RunAtomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
		u, err := user.GetTx(ctx, tx, "emp")
		if err != nil {
			return err
		}
		_, err = ledger.GrantTx(ctx, tx, u, 5, credit.ReasonCreditPack, credit.Ref{PaymentID: "pi_1"})
		return err
	})
	requireNoError(t, err)

	var u user.User
	requireNoError(t, s.Get(context.Background(), store.CollectionUsers, "emp", &u))
	if u.Credits.Balance != 6 || u.Credits.LifetimeEarned != 6 || !u.Credits.Balanced() {
		t.Fatalf("unexpected credits %+v", u.Credits)
	}
}

func TestGrantRejectsNonPositive(t *testing.T) {
	ledger := credit.NewLedger()
	u := user.New("emp", fixedNow)
	if _, err := ledger.GrantTx(context.Background(), nil, u, 0, credit.ReasonCreditPack, credit.Ref{}); !errors.Is(err, credit.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestReleaseUnlimitedRestoresIdentity(t *testing.T) {
	ledger := credit.NewLedger()
	u := user.New("prem", fixedNow)
	u.Credits = user.Credits{Balance: user.UnlimitedBalance, LifetimeEarned: 4, Used: 7}

	ledger.ReleaseUnlimited(u)

	if u.Credits.Balance != 0 || u.Credits.LifetimeEarned != 7 || !u.Credits.Balanced() {
		t.Fatalf("unexpected credits %+v", u.Credits)
	}

	u.Credits = user.Credits{Balance: user.UnlimitedBalance, LifetimeEarned: 10, Used: 3}
	ledger.ReleaseUnlimited(u)
	if u.Credits.Balance != 7 {
		t.Fatalf("expected 7 remaining, got %+v", u.Credits)
	}
}
