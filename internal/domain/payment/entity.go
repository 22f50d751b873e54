package payment

import (
	"strconv"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain/membership"
	"github.com/gigboard/gigboard-api/internal/domain/user"
)

// Type is the kind of purchase a payment paid for
type Type string

const (
	TypeMembership Type = "membership"
	TypeCreditPack Type = "credit_pack"
)

// Metadata keys written on the payment intent and read back from the webhook
const (
	MetaUserID       = "uid"
	MetaType         = "type"
	MetaTier         = "tier"
	MetaPack         = "pack"
	MetaCreditsToAdd = "creditsToAdd"
)

// Record is the payments/{paymentId} document. Its existence marks the
// payment as applied.
type Record struct {
	ID           string            `json:"id"`
	Provider     string            `json:"provider,omitempty"`
	UserID       string            `json:"userId"`
	Type         Type              `json:"type"`
	Tier         user.Tier         `json:"tier,omitempty"`
	Pack         membership.PackID `json:"pack,omitempty"`
	CreditsAdded int               `json:"creditsAdded"`
	AmountCents  int64             `json:"amountCents"`
	Currency     string            `json:"currency"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Event is a verified payment_intent.succeeded notification
type Event struct {
	Provider    string
	PaymentID   string
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// Purchase is what a payment bought: MembershipPurchase or CreditPackPurchase
type Purchase interface {
	purchaseType() Type
}

// MembershipPurchase buys a 30-day membership tier
type MembershipPurchase struct {
	Tier user.Tier
}

func (MembershipPurchase) purchaseType() Type { return TypeMembership }

// CreditPackPurchase buys a fixed number of credits
type CreditPackPurchase struct {
	Pack    membership.PackID
	Credits int
}

func (CreditPackPurchase) purchaseType() Type { return TypeCreditPack }

// ParsePurchase reads the buyer and the purchase from intent metadata
func ParsePurchase(meta map[string]string) (string, Purchase, error) {
	uid := meta[MetaUserID]
	if uid == "" {
		return "", nil, invalidInput("missing %s", MetaUserID)
	}

	switch Type(meta[MetaType]) {
	case TypeMembership:
		tier := user.Tier(meta[MetaTier])
		if _, err := membership.PlanFor(tier); err != nil {
			return "", nil, invalidInput("unsupported tier %q", tier)
		}
		return uid, MembershipPurchase{Tier: tier}, nil

	case TypeCreditPack:
		credits, err := strconv.Atoi(meta[MetaCreditsToAdd])
		if err != nil || credits <= 0 {
			return "", nil, invalidInput("%s must be a positive integer", MetaCreditsToAdd)
		}
		pack := membership.PackID(meta[MetaPack])
		if pack == "" {
			if p, ok := membership.PackForCredits(credits); ok {
				pack = p.ID
			}
		}
		return uid, CreditPackPurchase{Pack: pack, Credits: credits}, nil

	default:
		return "", nil, invalidInput("unknown purchase type %q", meta[MetaType])
	}
}

// ListPrice is the catalog price of a purchase. ok is false when the
// purchase does not map to a catalog item.
func ListPrice(p Purchase) (cents int64, ok bool) {
	switch p := p.(type) {
	case MembershipPurchase:
		plan, err := membership.PlanFor(p.Tier)
		if err != nil {
			return 0, false
		}
		return plan.PriceCents, true
	case CreditPackPurchase:
		pack, err := membership.PackFor(p.Pack)
		if err != nil || pack.Credits != p.Credits {
			return 0, false
		}
		return pack.PriceCents, true
	}
	return 0, false
}

// IntentRequest is the body of POST /payments/intents. Exactly one of
// Plan and Pack must be set.
type IntentRequest struct {
	Plan string `json:"plan" validate:"omitempty,plan"`
	Pack string `json:"pack" validate:"omitempty,credit_pack"`

	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// IntentResponse carries what the client needs to confirm the payment
type IntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
}
