package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planCols = `id, name, tier, price_cents, currency, duration_days, unlocked_roles, created_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (id, name, tier, price_cents, currency, duration_days, unlocked_roles, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  name=$2, tier=$3, price_cents=$4, currency=$5, duration_days=$6, unlocked_roles=$7;`
	roles := make([]string, len(p.UnlockedRoles))
	for i, role := range p.UnlockedRoles {
		roles[i] = string(role)
	}
	if _, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Tier, p.PriceCents, p.Currency, p.DurationDays, roles, p.CreatedAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	q := `SELECT ` + planCols + ` FROM subscription_plans WHERE id=$1;`
	return r.scanOne(ctx, tx, q, id)
}

func (r *planRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.SubscriptionPlan, error) {
	q := `SELECT ` + planCols + ` FROM subscription_plans WHERE tier=$1 LIMIT 1;`
	return r.scanOne(ctx, tx, q, tier)
}

func (r *planRepo) List(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	q := `SELECT ` + planCols + ` FROM subscription_plans ORDER BY price_cents ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *planRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.SubscriptionPlan, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPlan(row pgx.Row) (*model.SubscriptionPlan, error) {
	p := &model.SubscriptionPlan{}
	var roles []string
	if err := row.Scan(&p.ID, &p.Name, &p.Tier, &p.PriceCents, &p.Currency, &p.DurationDays, &roles, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, domain.ErrReadDatabaseRow
	}
	for _, role := range roles {
		p.UnlockedRoles = append(p.UnlockedRoles, model.Role(role))
	}
	return p, nil
}
