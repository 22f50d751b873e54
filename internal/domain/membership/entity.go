package membership

import (
	"time"

	"github.com/gigboard/gigboard-api/internal/domain/user"
)

// Period is how long a purchased membership lasts
const Period = 30 * 24 * time.Hour

// Currency of every catalog price
const Currency = "eur"

// BasicCreditGrant is credited once per basic purchase
const BasicCreditGrant = 50

// PackID identifies a credit pack
type PackID string

const (
	PackCredit1  PackID = "credit_1"
	PackCredit5  PackID = "credit_5"
	PackCredit12 PackID = "credit_12"
	PackCredit30 PackID = "credit_30"
)

// Plan is a purchasable membership tier
type Plan struct {
	Tier         user.Tier `json:"tier"`
	Name         string    `json:"name"`
	PriceCents   int64     `json:"priceCents"`
	GrantCredits int       `json:"grantCredits"`
	Unlimited    bool      `json:"unlimited"`
}

// Pack is a purchasable bundle of credits
type Pack struct {
	ID         PackID `json:"id"`
	PriceCents int64  `json:"priceCents"`
	Credits    int    `json:"credits"`
}

var plans = map[user.Tier]Plan{
	user.TierBasic:   {Tier: user.TierBasic, Name: "Basic", PriceCents: 799, GrantCredits: BasicCreditGrant},
	user.TierPremium: {Tier: user.TierPremium, Name: "Premium", PriceCents: 2499, Unlimited: true},
}

var packs = map[PackID]Pack{
	PackCredit1:  {ID: PackCredit1, PriceCents: 199, Credits: 1},
	PackCredit5:  {ID: PackCredit5, PriceCents: 799, Credits: 5},
	PackCredit12: {ID: PackCredit12, PriceCents: 1499, Credits: 12},
	PackCredit30: {ID: PackCredit30, PriceCents: 3499, Credits: 30},
}

// PlanFor looks up a purchasable tier
func PlanFor(tier user.Tier) (Plan, error) {
	p, ok := plans[tier]
	if !ok {
		return Plan{}, ErrUnknownPlan
	}
	return p, nil
}

// PackFor looks up a credit pack
func PackFor(id PackID) (Pack, error) {
	p, ok := packs[id]
	if !ok {
		return Pack{}, ErrUnknownPack
	}
	return p, nil
}

// PackForCredits finds the pack granting exactly n credits
func PackForCredits(n int) (Pack, bool) {
	for _, p := range packs {
		if p.Credits == n {
			return p, true
		}
	}
	return Pack{}, false
}
