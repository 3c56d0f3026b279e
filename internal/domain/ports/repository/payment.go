package repository

import (
	"context"
	"time"

	"course-booking-platform/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Payment, error)
	FindPendingByReference(ctx context.Context, tx Tx, refType model.ReferenceType, referenceID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, intentID *string, paidAt *time.Time) error
	Delete(ctx context.Context, tx Tx, id string) error
	// ListPendingOlderThan feeds the checkout reaper: stale pending payments
	// whose sessions may have expired upstream without a webhook arriving.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
