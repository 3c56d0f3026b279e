package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionCols = `id, user_id, plan_id, tier, start_at, expires_at, status, created_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (id, user_id, plan_id, tier, start_at, expires_at, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  plan_id=$3, tier=$4, start_at=$5, expires_at=$6, status=$7;`
	if _, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.PlanID, s.Tier, s.StartAt, s.ExpiresAt, s.Status, s.CreatedAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	q := `SELECT ` + subscriptionCols + ` FROM user_subscriptions WHERE id=$1;`
	return r.scanOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	q := `SELECT ` + subscriptionCols + ` FROM user_subscriptions
WHERE user_id=$1 AND status='ACTIVE' AND expires_at > NOW()
ORDER BY expires_at DESC LIMIT 1;`
	return r.scanOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus) error {
	const q = `UPDATE user_subscriptions SET status=$2 WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, status); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) ListActiveExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.UserSubscription, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + subscriptionCols + ` FROM user_subscriptions
WHERE status='ACTIVE' AND expires_at < $1 ORDER BY expires_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserSubscription
	for rows.Next() {
		s := &model.UserSubscription{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Tier, &s.StartAt, &s.ExpiresAt, &s.Status, &s.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *subscriptionRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.UserSubscription, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	s := &model.UserSubscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Tier, &s.StartAt, &s.ExpiresAt, &s.Status, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
