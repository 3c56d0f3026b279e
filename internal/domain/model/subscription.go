package model

import (
	"time"

	"course-booking-platform/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// UserSubscription is one user's subscription instance for a plan.
type UserSubscription struct {
	ID        string
	UserID    string
	PlanID    string
	Tier      Tier
	StartAt   time.Time
	ExpiresAt time.Time
	Status    SubscriptionStatus
	CreatedAt time.Time
}

func NewUserSubscription(id, userID string, plan *SubscriptionPlan) (*UserSubscription, error) {
	if userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &UserSubscription{
		ID:        id,
		UserID:    userID,
		PlanID:    plan.ID,
		Tier:      plan.Tier,
		StartAt:   now,
		ExpiresAt: now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		Status:    SubscriptionStatusActive,
		CreatedAt: now,
	}, nil
}

// IsActive reports whether the subscription grants access at the given time.
func (s *UserSubscription) IsActive(now time.Time) bool {
	return s != nil && s.Status == SubscriptionStatusActive && now.Before(s.ExpiresAt)
}
