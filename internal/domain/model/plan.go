package model

import (
	"time"

	"course-booking-platform/internal/domain"
)

// SubscriptionPlan is a purchasable subscription level. PlanFeatures (the
// catalog) decides which features the plan's tier unlocks; UnlockedRoles is a
// separate mechanism consulted only by the tier guard stage, and the two are
// deliberately not derived from each other.
type SubscriptionPlan struct {
	ID            string
	Name          string
	Tier          Tier
	PriceCents    int64
	Currency      string
	DurationDays  int
	UnlockedRoles []Role
	CreatedAt     time.Time
}

func NewSubscriptionPlan(id, name string, tier Tier, priceCents int64, durationDays int, unlockedRoles []Role) (*SubscriptionPlan, error) {
	if id == "" || name == "" || tier == TierNone || durationDays <= 0 || priceCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:            id,
		Name:          name,
		Tier:          tier,
		PriceCents:    priceCents,
		Currency:      "usd",
		DurationDays:  durationDays,
		UnlockedRoles: unlockedRoles,
		CreatedAt:     time.Now(),
	}, nil
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// UnlocksTier reports whether the plan's unlocked-roles list names the given
// tier string. The guard stage matches on this list, not on PlanFeatures.
func (p *SubscriptionPlan) UnlocksTier(tier Tier) bool {
	for _, r := range p.UnlockedRoles {
		if Tier(r) == tier || NormalizeTier(string(r)) == tier {
			return true
		}
	}
	return false
}
