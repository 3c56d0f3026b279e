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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, name, roles, tier, registered_at, last_active_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  email=$2, name=$3, roles=$4, tier=$5, last_active_at=$7;`
	roles := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		roles[i] = string(role)
	}
	if _, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.Name, roles, u.Tier, u.RegisteredAt, u.LastActiveAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT id, email, name, roles, tier, registered_at, last_active_at FROM users WHERE id=$1;`
	return r.scanOne(ctx, tx, q, id)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `SELECT id, email, name, roles, tier, registered_at, last_active_at FROM users WHERE email=$1;`
	return r.scanOne(ctx, tx, q, email)
}

func (r *userRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	var roles []string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &roles, &u.Tier, &u.RegisteredAt, &u.LastActiveAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	for _, role := range roles {
		u.Roles = append(u.Roles, model.Role(role))
	}
	return u, nil
}
