package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// GetActive returns the user's active subscription. ErrNoActiveSubscription
	// when none exists; ErrExpiredSubscription when a row is still marked
	// active but its expiry has passed (the worker has not caught it yet).
	GetActive(ctx context.Context, userID string) (*model.UserSubscription, error)
	// ActivePlan resolves the active subscription to its plan, which the tier
	// guard stage consults for UnlockedRoles.
	ActivePlan(ctx context.Context, userID string) (*model.SubscriptionPlan, error)
	// GetByID loads one subscription row regardless of state. Ownership is
	// the route guard's concern, not this layer's.
	GetByID(ctx context.Context, id string) (*model.UserSubscription, error)
	// FinishExpired marks active-but-past-expiry rows as EXPIRED. Returns the
	// number of rows finished.
	FinishExpired(ctx context.Context, limit int) (int, error)
}

type subscriptionUC struct {
	subs   repository.SubscriptionRepository
	plans  repository.PlanRepository
	txm    repository.TransactionManager
	logger zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.PlanRepository, txm repository.TransactionManager, logger zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{
		subs:   subs,
		plans:  plans,
		txm:    txm,
		logger: logger.With().Str("component", "subscription_uc").Logger(),
	}
}

func (u *subscriptionUC) GetActive(ctx context.Context, userID string) (*model.UserSubscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	sub, err := u.subs.FindActiveByUser(ctx, nil, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}
	if !sub.IsActive(time.Now()) {
		return nil, domain.ErrExpiredSubscription
	}
	return sub, nil
}

func (u *subscriptionUC) ActivePlan(ctx context.Context, userID string) (*model.SubscriptionPlan, error) {
	sub, err := u.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.plans.FindByID(ctx, nil, sub.PlanID)
}

func (u *subscriptionUC) GetByID(ctx context.Context, id string) (*model.UserSubscription, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.subs.FindByID(ctx, nil, id)
}

func (u *subscriptionUC) FinishExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	var finished int
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		expired, err := u.subs.ListActiveExpiredBefore(ctx, tx, time.Now(), limit)
		if err != nil {
			return err
		}
		for _, sub := range expired {
			if err := u.subs.UpdateStatus(ctx, tx, sub.ID, model.SubscriptionStatusExpired); err != nil {
				return err
			}
			u.logger.Info().Str("subscription_id", sub.ID).Str("user_id", sub.UserID).
				Time("expired_at", sub.ExpiresAt).Msg("subscription finished")
			finished++
		}
		return nil
	})
	return finished, err
}
