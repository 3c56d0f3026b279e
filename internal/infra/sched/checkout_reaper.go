package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/ports/adapter"
	"course-booking-platform/internal/domain/ports/repository"
	"course-booking-platform/internal/infra/metrics"
	"course-booking-platform/internal/usecase"
)

// CheckoutReaper periodically scans for stale pending payments and asks the
// provider what became of their sessions. This covers webhooks that never
// arrived: paid sessions get settled, expired ones get their pending rows
// removed so the user can buy again.
type CheckoutReaper struct {
	uc         usecase.EnrollmentUseCase
	payments   repository.PaymentRepository
	gateway    adapter.CheckoutGateway
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to recheck
	log        *zerolog.Logger
}

func NewCheckoutReaper(uc usecase.EnrollmentUseCase, payments repository.PaymentRepository, gateway adapter.CheckoutGateway, interval, staleAfter time.Duration, logger *zerolog.Logger) *CheckoutReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	reaperLog := logger.With().Str("component", "CheckoutReaper").Logger()
	return &CheckoutReaper{
		uc:         uc,
		payments:   payments,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &reaperLog,
	}
}

func (w *CheckoutReaper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting checkout reaper")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping checkout reaper")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *CheckoutReaper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending payments failed")
		return
	}

	reaped := 0
	for _, p := range pending {
		ev, ok := w.probe(ctx, p.SessionID)
		if !ok {
			continue
		}
		if err := w.uc.Reconcile(ctx, ev); err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Str("session_id", p.SessionID).
				Msg("reconcile stale payment failed")
			continue
		}
		reaped++
		w.log.Info().Str("payment_id", p.ID).Str("event", string(ev.Type)).
			Msg("stale payment reconciled")
	}
	if reaped > 0 {
		metrics.IncPaymentsReaped(reaped)
	}
}

// probe maps the provider's current session state to the event Reconcile
// would have received from a webhook. Sessions still open are left alone.
func (w *CheckoutReaper) probe(ctx context.Context, sessionID string) (adapter.CheckoutEvent, bool) {
	status, err := w.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		// Unknown upstream counts as expired; other errors are retried on
		// the next sweep.
		if errors.Is(err, domain.ErrNotFound) {
			return adapter.CheckoutEvent{Type: adapter.EventCheckoutExpired, SessionID: sessionID}, true
		}
		w.log.Warn().Err(err).Str("session_id", sessionID).Msg("retrieve session failed")
		return adapter.CheckoutEvent{}, false
	}

	switch {
	case status.State == adapter.SessionComplete && status.Payment == adapter.PaymentPaid:
		return adapter.CheckoutEvent{
			Type:      adapter.EventCheckoutCompleted,
			SessionID: sessionID,
			IntentID:  status.IntentID,
			Metadata:  status.Metadata,
		}, true
	case status.State == adapter.SessionExpired:
		return adapter.CheckoutEvent{Type: adapter.EventCheckoutExpired, SessionID: sessionID}, true
	default:
		return adapter.CheckoutEvent{}, false
	}
}
