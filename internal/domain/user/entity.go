package user

import "time"

// Tier is the membership level
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// UnlimitedBalance is the sentinel balance of premium members
const UnlimitedBalance = 999_999

// UnlimitedAds disables the monthly full-time post limit
const UnlimitedAds = -1

// FullTimeAdsLimitFor returns the monthly full-time post allowance of a tier
func FullTimeAdsLimitFor(t Tier) int {
	switch t {
	case TierPremium:
		return UnlimitedAds
	case TierBasic:
		return 5
	default:
		return 1
	}
}

// Credits is mutated only through the credit ledger
type Credits struct {
	Balance        int `json:"balance"`
	LifetimeEarned int `json:"lifetimeEarned"`
	Used           int `json:"used"`
}

// IsUnlimited reports whether the balance holds the premium sentinel
func (c Credits) IsUnlimited() bool {
	return c.Balance >= UnlimitedBalance
}

// Balanced reports whether balance + used == lifetimeEarned.
// Sentinel balances are exempt.
func (c Credits) Balanced() bool {
	return c.IsUnlimited() || c.Balance+c.Used == c.LifetimeEarned
}

// Membership is changed only by successful payments
type Membership struct {
	Tier                       Tier       `json:"tier"`
	StartedAt                  *time.Time `json:"startedAt,omitempty"`
	ExpiresAt                  *time.Time `json:"expiresAt,omitempty"`
	FullTimeAdsLimit           int        `json:"fullTimeAdsLimit"`
	FullTimeAdsPostedThisMonth int        `json:"fullTimeAdsPostedThisMonth"`
	MonthKey                   string     `json:"monthKey"`
}

// User is the users/{uid} document
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName,omitempty"`
	Credits     Credits    `json:"credits"`
	Membership  Membership `json:"membership"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// New returns a free-tier user with no credits
func New(id string, now time.Time) *User {
	now = now.UTC()
	return &User{
		ID: id,
		Membership: Membership{
			Tier:             TierFree,
			FullTimeAdsLimit: FullTimeAdsLimitFor(TierFree),
			MonthKey:         MonthKey(now),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPremiumActive reports whether premium benefits apply at now
func (u *User) IsPremiumActive(now time.Time) bool {
	return u.Membership.Tier == TierPremium && !u.expired(now)
}

// PremiumLapsed reports a premium tier whose expiry has passed but which
// has not been reconciled yet
func (u *User) PremiumLapsed(now time.Time) bool {
	return u.Membership.Tier == TierPremium && u.expired(now)
}

// EffectiveTier is the tier whose benefits apply at now
func (u *User) EffectiveTier(now time.Time) Tier {
	if u.Membership.Tier == TierFree || u.expired(now) {
		return TierFree
	}
	return u.Membership.Tier
}

func (u *User) expired(now time.Time) bool {
	exp := u.Membership.ExpiresAt
	return exp == nil || !now.Before(*exp)
}

// MonthKey buckets a time into its UTC calendar month
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
