package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/adapter"
	"course-booking-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ EnrollmentUseCase = (*enrollmentUC)(nil)

// PurchaseOutcome says how InitiatePurchase arrived at its checkout session.
type PurchaseOutcome string

const (
	OutcomeCreated  PurchaseOutcome = "created"  // fresh enrollment + session
	OutcomeReused   PurchaseOutcome = "reused"   // pending enrollment with a still-open session
	OutcomeReplaced PurchaseOutcome = "replaced" // stale pending rows cleaned up, new session opened
)

// PurchaseIntent is what the enroll endpoint hands back to the client.
type PurchaseIntent struct {
	PaymentID   string
	SessionID   string
	CheckoutURL string
	Outcome     PurchaseOutcome
}

// SessionView pairs the local payment record with the provider's live view of
// its checkout session.
type SessionView struct {
	Payment  *model.Payment
	Provider adapter.SessionStatus
}

// EnrollmentUseCase orchestrates the course purchase flow: opening checkout
// sessions, reconciling provider events into enrollment + payment state, and
// answering status queries. It is the only writer of enrollment rows.
type EnrollmentUseCase interface {
	// InitiatePurchase opens (or re-uses) a checkout session for the pair.
	// Settled enrollments return ErrAlreadyEnrolled; a pending enrollment
	// whose session is still open returns the same session again.
	InitiatePurchase(ctx context.Context, userID, courseID string) (*PurchaseIntent, error)
	// Reconcile applies one verified checkout event. It is idempotent:
	// replays of an already-applied event succeed without side effects, and
	// events for unknown sessions are acknowledged and dropped.
	Reconcile(ctx context.Context, ev adapter.CheckoutEvent) error
	// VerifyPayment is the client-driven fallback for a missed webhook: it
	// asks the provider for the session's state and settles accordingly.
	VerifyPayment(ctx context.Context, userID, sessionID string) (*model.Payment, error)
	// SessionStatus returns the caller's payment and the provider session
	// state without mutating anything.
	SessionStatus(ctx context.Context, userID, sessionID string) (*SessionView, error)
}

type enrollmentUC struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	payments    repository.PaymentRepository
	users       repository.UserRepository
	txm         repository.TransactionManager
	gateway     adapter.CheckoutGateway
	notifier    adapter.NotificationSender
	logger      zerolog.Logger
}

func NewEnrollmentUseCase(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	payments repository.PaymentRepository,
	users repository.UserRepository,
	txm repository.TransactionManager,
	gateway adapter.CheckoutGateway,
	notifier adapter.NotificationSender,
	logger zerolog.Logger,
) *enrollmentUC {
	return &enrollmentUC{
		courses:     courses,
		enrollments: enrollments,
		payments:    payments,
		users:       users,
		txm:         txm,
		gateway:     gateway,
		notifier:    notifier,
		logger:      logger.With().Str("component", "enrollment_uc").Logger(),
	}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockPair serializes concurrent purchases of the same (user, course) pair for
// the duration of the transaction. Under a non-pgx transaction handle (tests)
// it is a no-op; the in-tx re-check still holds the invariant there.
func lockPair(ctx context.Context, tx repository.Tx, userID, courseID string) error {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil
	}
	_, err := pgxTx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(userID+":"+courseID))
	return err
}

func (u *enrollmentUC) InitiatePurchase(ctx context.Context, userID, courseID string) (*PurchaseIntent, error) {
	if userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if _, err := u.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	course, err := u.courses.FindByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, domain.ErrNotFound
	}

	var intent *PurchaseIntent
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockPair(ctx, tx, userID, courseID); err != nil {
			return err
		}

		existing, err := u.enrollments.FindCurrentByUserAndCourse(ctx, tx, userID, courseID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if existing != nil {
			done, err := u.resolvePending(ctx, tx, existing, &intent)
			if err != nil || done {
				return err
			}
		}

		fresh, err := u.openSession(ctx, tx, userID, course)
		if err != nil {
			return err
		}
		if intent == nil {
			fresh.Outcome = OutcomeCreated
		} else {
			fresh.Outcome = OutcomeReplaced
		}
		intent = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if intent.Outcome != OutcomeReused {
		u.notify(ctx, userID, adapter.NotifyPurchaseInitiated, map[string]string{
			"course_id":  courseID,
			"session_id": intent.SessionID,
		})
	}
	return intent, nil
}

// resolvePending handles an existing non-cancelled enrollment inside the
// purchase transaction. Returns done=true when intent is final (re-used open
// session, or the pair is already settled). When it returns done=false the
// stale rows have been removed and a fresh session should be opened; intent is
// set non-nil as a marker so the caller reports the replaced outcome.
func (u *enrollmentUC) resolvePending(ctx context.Context, tx repository.Tx, existing *model.Enrollment, intent **PurchaseIntent) (bool, error) {
	if existing.IsSettled() {
		return true, domain.ErrAlreadyEnrolled
	}

	payment, err := u.payments.FindPendingByReference(ctx, tx, model.ReferenceCourseEnrollment, existing.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return true, err
		}
		// Orphaned pending enrollment with no payment; remove and retry.
		if err := u.enrollments.Delete(ctx, tx, existing.ID); err != nil {
			return true, err
		}
		*intent = &PurchaseIntent{}
		return false, nil
	}

	status, err := u.gateway.RetrieveSession(ctx, payment.SessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Provider forgot the session; treat as expired.
	case err != nil:
		return true, err
	case status.State == adapter.SessionOpen:
		*intent = &PurchaseIntent{
			PaymentID:   payment.ID,
			SessionID:   payment.SessionID,
			CheckoutURL: status.URL,
			Outcome:     OutcomeReused,
		}
		return true, nil
	case status.State == adapter.SessionComplete && status.Payment == adapter.PaymentPaid:
		// Paid but the webhook has not landed yet. Settle here; the eventual
		// webhook replay becomes a no-op.
		if err := u.settle(ctx, tx, payment, status.IntentID); err != nil {
			return true, err
		}
		return true, domain.ErrAlreadyEnrolled
	}

	// Expired, abandoned or unknown upstream: drop both rows and start over.
	if err := u.payments.Delete(ctx, tx, payment.ID); err != nil {
		return true, err
	}
	if err := u.enrollments.Delete(ctx, tx, existing.ID); err != nil {
		return true, err
	}
	*intent = &PurchaseIntent{}
	return false, nil
}

func (u *enrollmentUC) openSession(ctx context.Context, tx repository.Tx, userID string, course *model.Course) (*PurchaseIntent, error) {
	enrollment, err := model.NewPendingEnrollment(userID, course.ID)
	if err != nil {
		return nil, err
	}
	if err := u.enrollments.Save(ctx, tx, enrollment); err != nil {
		return nil, err
	}

	session, err := u.gateway.CreateSession(ctx, adapter.CheckoutInput{
		Amount:      course.PriceCents,
		Currency:    course.Currency,
		Description: course.Title,
		Metadata: map[string]string{
			"user_id":   userID,
			"course_id": course.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open checkout session: %w", err)
	}

	payment, err := model.NewPendingPayment(userID, enrollment.ID, model.ReferenceCourseEnrollment, course.PriceCents, course.Currency, session.ID)
	if err != nil {
		return nil, err
	}
	if err := u.payments.Save(ctx, tx, payment); err != nil {
		return nil, err
	}

	return &PurchaseIntent{
		PaymentID:   payment.ID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// settle moves a pending payment to SUCCEEDED and its enrollment to ACTIVE in
// the current transaction. Already-settled payments are left untouched.
func (u *enrollmentUC) settle(ctx context.Context, tx repository.Tx, payment *model.Payment, intentID string) error {
	if payment.Status == model.PaymentStatusSucceeded {
		return nil
	}
	now := time.Now()
	var intentPtr *string
	if intentID != "" {
		intentPtr = &intentID
	}
	if err := u.payments.UpdateStatus(ctx, tx, payment.ID, model.PaymentStatusSucceeded, intentPtr, &now); err != nil {
		return err
	}
	return u.enrollments.UpdateStatus(ctx, tx, payment.ReferenceID, model.EnrollmentStatusActive)
}

func (u *enrollmentUC) Reconcile(ctx context.Context, ev adapter.CheckoutEvent) error {
	switch ev.Type {
	case adapter.EventCheckoutCompleted:
		return u.reconcileCompleted(ctx, ev)
	case adapter.EventCheckoutExpired:
		return u.reconcileExpired(ctx, ev)
	case adapter.EventPaymentFailed:
		return u.reconcileFailed(ctx, ev)
	case adapter.EventIgnored:
		return nil
	default:
		return nil
	}
}

func (u *enrollmentUC) reconcileCompleted(ctx context.Context, ev adapter.CheckoutEvent) error {
	var notifyUser string
	var notifyCourse string

	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		payment, err := u.payments.FindBySessionID(ctx, tx, ev.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			u.logger.Warn().Str("session_id", ev.SessionID).Str("event_id", ev.ID).
				Msg("completed event for unknown session, dropping")
			return nil
		}
		if err != nil {
			return err
		}

		if err := u.checkCorrelation(ctx, tx, payment, ev); err != nil {
			return err
		}
		if payment.Status == model.PaymentStatusSucceeded {
			// Replay; the first delivery already settled and notified.
			return nil
		}
		if err := u.settle(ctx, tx, payment, ev.IntentID); err != nil {
			return err
		}
		notifyUser = payment.UserID
		notifyCourse = ev.Metadata["course_id"]
		return nil
	})
	if err != nil {
		return err
	}

	if notifyUser != "" {
		u.notify(ctx, notifyUser, adapter.NotifyEnrollmentActive, map[string]string{
			"course_id": notifyCourse,
		})
	}
	return nil
}

func (u *enrollmentUC) reconcileExpired(ctx context.Context, ev adapter.CheckoutEvent) error {
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		payment, err := u.payments.FindBySessionID(ctx, tx, ev.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if payment.Status != model.PaymentStatusPending {
			// A settled payment is never unwound by an expiry event.
			return nil
		}
		if err := u.payments.Delete(ctx, tx, payment.ID); err != nil {
			return err
		}
		if payment.ReferenceType == model.ReferenceCourseEnrollment {
			if err := u.enrollments.Delete(ctx, tx, payment.ReferenceID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

// reconcileFailed marks the payment FAILED while the enrollment stays
// PENDING, so a later retry replaces the pair. A payment that already settled
// or failed is left untouched.
func (u *enrollmentUC) reconcileFailed(ctx context.Context, ev adapter.CheckoutEvent) error {
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		payment, err := u.payments.FindBySessionID(ctx, tx, ev.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if payment.Status != model.PaymentStatusPending {
			return nil
		}
		if err := u.payments.UpdateStatus(ctx, tx, payment.ID, model.PaymentStatusFailed, nil, nil); err != nil {
			return err
		}
		u.logger.Info().Str("payment_id", payment.ID).Str("session_id", ev.SessionID).
			Msg("async payment failed")
		return nil
	})
}

// checkCorrelation validates event metadata against the local records. Events
// with absent or mismatched identity are rejected rather than applied.
func (u *enrollmentUC) checkCorrelation(ctx context.Context, tx repository.Tx, payment *model.Payment, ev adapter.CheckoutEvent) error {
	uid, ok := ev.Metadata["user_id"]
	if !ok {
		return fmt.Errorf("%w: event carries no user metadata", domain.ErrCorrelationMismatch)
	}
	if uid != payment.UserID {
		return fmt.Errorf("%w: user %s does not match payment %s", domain.ErrCorrelationMismatch, uid, payment.ID)
	}
	if payment.ReferenceType == model.ReferenceCourseEnrollment {
		enrollment, err := u.enrollments.FindByID(ctx, tx, payment.ReferenceID)
		if err != nil {
			return err
		}
		if cid := ev.Metadata["course_id"]; enrollment.CourseID != cid {
			return fmt.Errorf("%w: course %s does not match enrollment %s", domain.ErrCorrelationMismatch, cid, enrollment.ID)
		}
	}
	return nil
}

func (u *enrollmentUC) VerifyPayment(ctx context.Context, userID, sessionID string) (*model.Payment, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}

	payment, err := u.payments.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, domain.ErrNotOwner
	}

	status, err := u.gateway.RetrieveSession(ctx, sessionID)
	expired := errors.Is(err, domain.ErrNotFound)
	if err != nil && !expired {
		return nil, err
	}
	expired = expired || status.State == adapter.SessionExpired

	switch {
	case expired:
		if err := u.reconcileExpired(ctx, adapter.CheckoutEvent{SessionID: sessionID, Type: adapter.EventCheckoutExpired}); err != nil {
			return nil, err
		}
		// The pending rows are gone; report the attempt as canceled.
		canceled := *payment
		canceled.Status = model.PaymentStatusCanceled
		return &canceled, nil
	case status.State == adapter.SessionComplete && status.Payment == adapter.PaymentPaid:
		err = u.reconcileCompleted(ctx, adapter.CheckoutEvent{
			SessionID: sessionID,
			Type:      adapter.EventCheckoutCompleted,
			IntentID:  status.IntentID,
			Metadata:  status.Metadata,
		})
		if err != nil {
			return nil, err
		}
	}
	return u.payments.FindBySessionID(ctx, nil, sessionID)
}

func (u *enrollmentUC) SessionStatus(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	payment, err := u.payments.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	status, err := u.gateway.RetrieveSession(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &SessionView{Payment: payment, Provider: status}, nil
}

// notify is best effort. A failed or panicking sender must never fail the
// purchase that triggered it.
func (u *enrollmentUC) notify(ctx context.Context, userID string, kind adapter.NotificationKind, payload map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error().Interface("panic", r).Msg("notification sender panicked")
		}
	}()

	recipient := userID
	if user, err := u.users.FindByID(ctx, nil, userID); err == nil && user.Email != "" {
		recipient = user.Email
	}
	if err := u.notifier.Send(ctx, kind, recipient, payload); err != nil {
		u.logger.Warn().Err(err).Str("kind", string(kind)).Str("user_id", userID).
			Msg("notification send failed")
	}
}
