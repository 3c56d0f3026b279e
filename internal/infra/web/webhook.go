package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/ports/adapter"
	"course-booking-platform/internal/infra/metrics"
	"course-booking-platform/internal/usecase"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

type webhookReceivedResponse struct {
	Received bool `json:"received"`
}

// WebhookHandler verifies inbound provider events and feeds them through the
// enrollment orchestrator. A bad signature is rejected before anything is
// read from or written to storage.
type WebhookHandler struct {
	gateway  adapter.CheckoutGateway
	enrollUC usecase.EnrollmentUseCase
	log      *zerolog.Logger
}

func NewWebhookHandler(gateway adapter.CheckoutGateway, enrollUC usecase.EnrollmentUseCase, logger *zerolog.Logger) *WebhookHandler {
	whLog := logger.With().Str("component", "webhook").Logger()
	return &WebhookHandler{gateway: gateway, enrollUC: enrollUC, log: &whLog}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		metrics.IncWebhookEvent("unknown", "rejected")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing signature"})
		return
	}

	ev, err := h.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		h.log.Warn().Err(err).Msg("webhook verification failed")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signature"})
		return
	}

	if err := reconcileEvent(r, h.enrollUC, ev); err != nil {
		h.log.Error().Err(err).
			Str("event_id", ev.ID).
			Str("type", string(ev.Type)).
			Str("session_id", ev.SessionID).
			Msg("webhook processing failed")
		if errors.Is(err, domain.ErrCorrelationMismatch) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "event rejected"})
			return
		}
		// Transient failure: a non-2xx makes the provider redeliver.
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, webhookReceivedResponse{Received: true})
}
