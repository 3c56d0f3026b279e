package usecase

import (
	"context"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	List(ctx context.Context) ([]*model.SubscriptionPlan, error)
	GetByID(ctx context.Context, id string) (*model.SubscriptionPlan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return u.plans.List(ctx, nil)
}

func (u *planUC) GetByID(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.plans.FindByID(ctx, nil, id)
}
