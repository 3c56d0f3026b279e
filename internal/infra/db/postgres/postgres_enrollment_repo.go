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

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

const enrollmentCols = `id, user_id, course_id, status, created_at, updated_at`

func (r *enrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	const q = `
INSERT INTO enrollments (id, user_id, course_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET status=$4, updated_at=$6;`
	if _, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.CourseID, e.Status, e.CreatedAt, e.UpdatedAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Enrollment, error) {
	q := `SELECT ` + enrollmentCols + ` FROM enrollments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, id)
}

// FindCurrentByUserAndCourse returns the latest non-cancelled enrollment for
// the pair. Locked FOR UPDATE inside a transaction so the initiate-purchase
// double-check serializes against concurrent inserts.
func (r *enrollmentRepo) FindCurrentByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	q := `SELECT ` + enrollmentCols + ` FROM enrollments
WHERE user_id=$1 AND course_id=$2 AND status <> 'CANCELLED'
ORDER BY created_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, userID, courseID)
}

func (r *enrollmentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.EnrollmentStatus) error {
	const q = `UPDATE enrollments SET status=$2, updated_at=NOW() WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, status); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM enrollments WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Enrollment, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	e := &model.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}
