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

var _ repository.CourseRepository = (*courseRepo)(nil)

type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, instructor_id, price_cents, currency, published, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  title=$2, instructor_id=$3, price_cents=$4, currency=$5, published=$6;`
	if _, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Title, c.InstructorID, c.PriceCents, c.Currency, c.Published, c.CreatedAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT id, title, instructor_id, price_cents, currency, published, created_at FROM courses WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c := &model.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.InstructorID, &c.PriceCents, &c.Currency, &c.Published, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

var _ repository.BookingRepository = (*bookingRepo)(nil)

type bookingRepo struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *bookingRepo {
	return &bookingRepo{pool: pool}
}

func (r *bookingRepo) Save(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	const q = `
INSERT INTO bookings (id, user_id, professional_id, start_at, end_at, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  start_at=$4, end_at=$5, status=$6;`
	if _, err := execSQL(ctx, r.pool, tx, q, b.ID, b.UserID, b.ProfessionalID, b.StartAt, b.EndAt, b.Status, b.CreatedAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *bookingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Booking, error) {
	const q = `SELECT id, user_id, professional_id, start_at, end_at, status, created_at FROM bookings WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{}
	if err := row.Scan(&b.ID, &b.UserID, &b.ProfessionalID, &b.StartAt, &b.EndAt, &b.Status, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}
