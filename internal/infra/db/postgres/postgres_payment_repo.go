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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentCols = `id, user_id, reference_id, reference_type, amount, currency, status, session_id, intent_id, created_at, updated_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, user_id, reference_id, reference_type, amount, currency, status, session_id, intent_id, created_at, updated_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  status=$7, session_id=$8, intent_id=$9, updated_at=$11, paid_at=$12;`
	if _, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.ReferenceID, p.ReferenceType, p.Amount, p.Currency, p.Status, p.SessionID, p.IntentID, p.CreatedAt, p.UpdatedAt, p.PaidAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, id)
}

func (r *paymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE session_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ` LIMIT 1;`
	return r.scanOne(ctx, tx, q, sessionID)
}

func (r *paymentRepo) FindPendingByReference(ctx context.Context, tx repository.Tx, refType model.ReferenceType, referenceID string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments
WHERE reference_type=$1 AND reference_id=$2 AND status='PENDING'
ORDER BY created_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, refType, referenceID)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, intentID *string, paidAt *time.Time) error {
	const q = `UPDATE payments SET status=$2, intent_id=COALESCE($3, intent_id), paid_at=COALESCE($4, paid_at), updated_at=NOW() WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, status, intentID, paidAt); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM payments WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentCols + ` FROM payments WHERE status='PENDING' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p := &model.Payment{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.ReferenceID, &p.ReferenceType, &p.Amount, &p.Currency, &p.Status, &p.SessionID, &p.IntentID, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.ReferenceID, &p.ReferenceType, &p.Amount, &p.Currency, &p.Status, &p.SessionID, &p.IntentID, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
