package repository

import (
	"context"

	"course-booking-platform/internal/domain/model"
)

type PlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.SubscriptionPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	FindByTier(ctx context.Context, tx Tx, tier model.Tier) (*model.SubscriptionPlan, error)
	List(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}
