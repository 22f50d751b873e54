package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/membership"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	gateway "github.com/gigboard/gigboard-api/internal/pkg/payment"
	"github.com/gigboard/gigboard-api/internal/store"
)

const defaultHistoryLimit = 20

// Service applies successful payments and creates payment intents
type Service struct {
	store    store.Store
	repo     *Repository
	ledger   *credit.Ledger
	provider gateway.PaymentProvider
	now      func() time.Time
}

// Option configures Service
type Option func(*Service)

// WithClock injects the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates payment service. provider may be nil, in which case
// intents and webhooks report ErrPaymentsUnavailable.
func NewService(s store.Store, ledger *credit.Ledger, provider gateway.PaymentProvider, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		repo:     NewRepository(s),
		ledger:   ledger,
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// HandleWebhook verifies a raw webhook delivery and applies it. Event
// types other than payment_intent.succeeded are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrPaymentsUnavailable
	}

	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			return fmt.Errorf("%w: %v", ErrSignatureVerificationFailed, err)
		case errors.Is(err, gateway.ErrMalformedEvent):
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case errors.Is(err, gateway.ErrNotConfigured):
			return fmt.Errorf("%w: %v", ErrPaymentsUnavailable, err)
		}
		return err
	}

	if ev.EventType != gateway.EventPaymentSucceeded {
		log.Debug().
			Str("event_id", ev.EventID).
			Str("event_type", ev.EventType).
			Msg("Ignoring webhook event")
		return nil
	}

	return s.HandlePaymentSucceeded(ctx, Event{
		Provider:    ev.Provider,
		PaymentID:   ev.PaymentID,
		AmountCents: ev.AmountCents,
		Currency:    ev.Currency,
		Metadata:    ev.Metadata,
	})
}

// HandlePaymentSucceeded applies a purchase exactly once per payment id.
// The payment record, the membership change and the credit grant commit
// together; a redelivered event finds the record and does nothing. The
// record is checked first and the buyer second, so purchase metadata is
// only validated for a new payment of a known user.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, ev Event) error {
	if ev.PaymentID == "" {
		return invalidInput("missing payment id")
	}
	uid := ev.Metadata[MetaUserID]
	if uid == "" {
		return invalidInput("missing %s", MetaUserID)
	}

	now := s.now().UTC()
	var (
		duplicate bool
		rec       Record
		purchase  Purchase
	)
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		duplicate = false

		var existing Record
		err := tx.Get(ctx, store.CollectionPayments, ev.PaymentID, &existing)
		if err == nil {
			duplicate = true
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		u, err := user.GetTx(ctx, tx, uid)
		if err != nil {
			return err
		}

		if _, purchase, err = ParsePurchase(ev.Metadata); err != nil {
			return err
		}
		rec, err = s.apply(ctx, tx, u, purchase, ev, now)
		if err != nil {
			return err
		}
		return tx.Create(store.CollectionPayments, ev.PaymentID, rec)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		duplicate, err = true, nil
	}
	if err != nil {
		return err
	}

	if duplicate {
		log.Info().Str("payment_id", ev.PaymentID).Msg("Payment already applied")
		return nil
	}

	if price, ok := ListPrice(purchase); ok && (price != ev.AmountCents || !strings.EqualFold(ev.Currency, membership.Currency)) {
		log.Warn().
			Str("payment_id", ev.PaymentID).
			Str("user_id", uid).
			Int64("amount_cents", ev.AmountCents).
			Int64("list_price_cents", price).
			Str("currency", ev.Currency).
			Msg("Payment amount differs from catalog price")
	}

	log.Info().
		Str("payment_id", ev.PaymentID).
		Str("provider", rec.Provider).
		Str("user_id", uid).
		Str("type", string(rec.Type)).
		Str("tier", string(rec.Tier)).
		Int("credits_added", rec.CreditsAdded).
		Msg("Payment applied")
	return nil
}

// apply mutates u for the purchase and writes it. Only writes happen here.
func (s *Service) apply(ctx context.Context, tx store.Tx, u *user.User, purchase Purchase, ev Event, now time.Time) (Record, error) {
	rec := Record{
		ID:          ev.PaymentID,
		Provider:    ev.Provider,
		UserID:      u.ID,
		Type:        purchase.purchaseType(),
		AmountCents: ev.AmountCents,
		Currency:    strings.ToLower(ev.Currency),
		CreatedAt:   now,
	}
	ref := credit.Ref{PaymentID: ev.PaymentID}

	if u.PremiumLapsed(now) {
		s.ledger.ReleaseUnlimited(u)
		membership.Lapse(u, now)
	}

	switch p := purchase.(type) {
	case MembershipPurchase:
		plan, err := membership.PlanFor(p.Tier)
		if err != nil {
			return Record{}, invalidInput("unsupported tier %q", p.Tier)
		}
		if !plan.Unlimited {
			s.ledger.ReleaseUnlimited(u)
		}
		if err := membership.Activate(u, p.Tier, now); err != nil {
			return Record{}, err
		}
		rec.Tier = p.Tier

		if plan.Unlimited {
			s.ledger.SetUnlimited(u)
			return rec, user.SaveTx(tx, u, now)
		}
		rec.CreditsAdded = plan.GrantCredits
		_, err = s.ledger.GrantTx(ctx, tx, u, plan.GrantCredits, credit.ReasonMembership, ref)
		return rec, err

	case CreditPackPurchase:
		rec.Pack = p.Pack
		rec.CreditsAdded = p.Credits
		_, err := s.ledger.GrantTx(ctx, tx, u, p.Credits, credit.ReasonCreditPack, ref)
		return rec, err
	}

	return Record{}, invalidInput("unsupported purchase %T", purchase)
}

// CreateIntent prices the requested plan or pack from the catalog and
// creates a payment intent carrying the metadata the webhook needs
func (s *Service) CreateIntent(ctx context.Context, userID string, req IntentRequest) (*IntentResponse, error) {
	if (req.Plan == "") == (req.Pack == "") {
		return nil, invalidInput("exactly one of plan or pack is required")
	}
	if s.provider == nil {
		return nil, ErrPaymentsUnavailable
	}

	meta := map[string]string{MetaUserID: userID}
	var (
		amount      int64
		description string
		product     string
	)

	if req.Plan != "" {
		plan, err := membership.PlanFor(user.Tier(req.Plan))
		if err != nil {
			return nil, invalidInput("unknown plan %q", req.Plan)
		}
		amount = plan.PriceCents
		description = plan.Name + " membership"
		meta[MetaType] = string(TypeMembership)
		meta[MetaTier] = string(plan.Tier)
		product = string(plan.Tier)
	} else {
		pack, err := membership.PackFor(membership.PackID(req.Pack))
		if err != nil {
			return nil, invalidInput("unknown pack %q", req.Pack)
		}
		amount = pack.PriceCents
		description = strconv.Itoa(pack.Credits) + " credits"
		meta[MetaType] = string(TypeCreditPack)
		meta[MetaPack] = string(pack.ID)
		meta[MetaCreditsToAdd] = strconv.Itoa(pack.Credits)
		product = string(pack.ID)
	}

	nonce := req.IdempotencyKey
	if nonce == "" {
		nonce = uuid.NewString()
	}

	resp, err := s.provider.CreatePayment(ctx, gateway.ProviderPaymentRequest{
		AmountCents:    amount,
		Currency:       membership.Currency,
		Description:    description,
		IdempotencyKey: IntentIdempotencyKey(userID, product, nonce),
		Metadata:       meta,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	log.Info().
		Str("provider", s.provider.Name()).
		Str("user_id", userID).
		Str("payment_id", resp.PaymentID).
		Int64("amount_cents", amount).
		Msg("Payment intent created")

	return &IntentResponse{
		ClientSecret:    resp.ClientSecret,
		PaymentIntentID: resp.PaymentID,
		AmountCents:     amount,
		Currency:        membership.Currency,
	}, nil
}

// IntentIdempotencyKey scopes a client nonce to the buyer and the product,
// so a retried request returns the same intent and a new purchase does not
func IntentIdempotencyKey(userID, product, nonce string) string {
	return "intent:" + userID + ":" + product + ":" + nonce
}

// History returns the caller's applied payments, newest first
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
