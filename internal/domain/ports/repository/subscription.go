package repository

import (
	"context"
	"time"

	"course-booking-platform/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.UserSubscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserSubscription, error)
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.SubscriptionStatus) error
	// ListActiveExpiredBefore returns active rows whose expiry already passed,
	// for the expiry worker to finish.
	ListActiveExpiredBefore(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.UserSubscription, error)
}
