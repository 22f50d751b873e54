package membership

import (
	"time"

	"github.com/gigboard/gigboard-api/internal/domain/user"
)

// Activate starts a fresh membership period. Credit effects are applied
// separately through the ledger.
func Activate(u *user.User, tier user.Tier, now time.Time) error {
	if _, err := PlanFor(tier); err != nil {
		return err
	}
	now = now.UTC()
	expires := now.Add(Period)

	u.Membership.Tier = tier
	u.Membership.StartedAt = &now
	u.Membership.ExpiresAt = &expires
	u.Membership.FullTimeAdsLimit = user.FullTimeAdsLimitFor(tier)
	rollMonth(u, now)
	return nil
}

// Lapse demotes an expired membership to the free tier
func Lapse(u *user.User, now time.Time) {
	u.Membership.Tier = user.TierFree
	u.Membership.FullTimeAdsLimit = user.FullTimeAdsLimitFor(user.TierFree)
	rollMonth(u, now)
}

// ConsumeFullTimeAd counts one full-time post against the monthly limit
// of the user's effective tier
func ConsumeFullTimeAd(u *user.User, now time.Time) error {
	rollMonth(u, now)

	tier := u.EffectiveTier(now)
	limit := u.Membership.FullTimeAdsLimit
	if tier != u.Membership.Tier || limit == 0 {
		limit = user.FullTimeAdsLimitFor(tier)
	}

	if limit != user.UnlimitedAds && u.Membership.FullTimeAdsPostedThisMonth >= limit {
		return &LimitError{
			Err:       ErrPostingLimitReached,
			Current:   u.Membership.FullTimeAdsPostedThisMonth,
			Limit:     limit,
			Tier:      tier,
			UpgradeTo: upgradeFrom(tier),
		}
	}

	u.Membership.FullTimeAdsPostedThisMonth++
	return nil
}

func rollMonth(u *user.User, now time.Time) {
	key := user.MonthKey(now)
	if u.Membership.MonthKey != key {
		u.Membership.MonthKey = key
		u.Membership.FullTimeAdsPostedThisMonth = 0
	}
}

func upgradeFrom(t user.Tier) user.Tier {
	switch t {
	case user.TierFree:
		return user.TierBasic
	case user.TierBasic:
		return user.TierPremium
	default:
		return ""
	}
}
