package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/adapter"
	"course-booking-platform/internal/infra/metrics"
	"course-booking-platform/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain sentinels to HTTP statuses. Unknown errors come back
// as a generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	case domain.IsForbidden(err):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoActiveSubscription), errors.Is(err, domain.ErrExpiredSubscription):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrAlreadyEnrolled), errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidWebhookPayload), errors.Is(err, domain.ErrCorrelationMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

type enrollResponse struct {
	PaymentID   string `json:"payment_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Reused      bool   `json:"reused"`
}

// enrollCourseHandler opens a checkout session for POST /api/v1/enroll-course/{id}.
func enrollCourseHandler(enrollUC usecase.EnrollmentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		courseID := chi.URLParam(r, "id")

		intent, err := enrollUC.InitiatePurchase(r.Context(), p.UserID, courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		metrics.IncCheckoutSession(string(intent.Outcome))
		writeJSON(w, http.StatusCreated, enrollResponse{
			PaymentID:   intent.PaymentID,
			SessionID:   intent.SessionID,
			CheckoutURL: intent.CheckoutURL,
			Reused:      intent.Outcome == usecase.OutcomeReused,
		})
	}
}

type verifyPaymentRequest struct {
	SessionID string `json:"session_id"`
}

type paymentResponse struct {
	PaymentID string     `json:"payment_id"`
	SessionID string     `json:"session_id"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		PaymentID: p.ID,
		SessionID: p.SessionID,
		Status:    string(p.Status),
		Amount:    p.Amount,
		Currency:  p.Currency,
		PaidAt:    p.PaidAt,
	}
}

// verifyPaymentHandler is the client-driven fallback for a missed webhook.
func verifyPaymentHandler(enrollUC usecase.EnrollmentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())

		var req verifyPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
			writeError(w, domain.ErrInvalidArgument)
			return
		}

		payment, err := enrollUC.VerifyPayment(r.Context(), p.UserID, req.SessionID)
		if err != nil {
			writeError(w, err)
			return
		}
		metrics.IncPayment(string(payment.Status))
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

type sessionStatusResponse struct {
	Payment  paymentResponse `json:"payment"`
	Provider struct {
		State   string `json:"state"`
		Payment string `json:"payment"`
	} `json:"provider"`
}

func paymentStatusHandler(enrollUC usecase.EnrollmentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		sessionID := chi.URLParam(r, "sessionID")

		view, err := enrollUC.SessionStatus(r.Context(), p.UserID, sessionID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := sessionStatusResponse{Payment: toPaymentResponse(view.Payment)}
		resp.Provider.State = string(view.Provider.State)
		resp.Provider.Payment = string(view.Provider.Payment)
		writeJSON(w, http.StatusOK, resp)
	}
}

type planResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Tier         string   `json:"tier"`
	PriceCents   int64    `json:"price_cents"`
	Currency     string   `json:"currency"`
	DurationDays int      `json:"duration_days"`
	Roles        []string `json:"unlocked_roles"`
}

func plansListHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := planUC.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]planResponse, 0, len(plans))
		for _, p := range plans {
			roles := make([]string, 0, len(p.UnlockedRoles))
			for _, role := range p.UnlockedRoles {
				roles = append(roles, string(role))
			}
			out = append(out, planResponse{
				ID:           p.ID,
				Name:         p.Name,
				Tier:         string(p.Tier),
				PriceCents:   p.PriceCents,
				Currency:     p.Currency,
				DurationDays: p.DurationDays,
				Roles:        roles,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// featuresHandler lists the caller's resolved entitlements.
func featuresHandler(entUC usecase.EntitlementUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			writeError(w, domain.ErrUnauthenticated)
			return
		}
		features := entUC.ListFeatures(r.Context(), p)
		out := make([]string, 0, len(features))
		for _, f := range features {
			out = append(out, string(f))
		}
		writeJSON(w, http.StatusOK, map[string][]string{"features": out})
	}
}

type courseCreateRequest struct {
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

func courseCreateHandler(courseUC usecase.CourseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())

		var req courseCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrInvalidArgument)
			return
		}
		course, err := courseUC.Create(r.Context(), p.UserID, req.Title, req.PriceCents, req.Currency)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, course)
	}
}

func courseGetHandler(courseUC usecase.CourseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course, err := courseUC.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, course)
	}
}

func bookingGetHandler(courseUC usecase.CourseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := courseUC.GetBooking(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	}
}

type courseUpdateRequest struct {
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
}

func courseUpdateHandler(courseUC usecase.CourseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrInvalidArgument)
			return
		}
		course, err := courseUC.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.PriceCents)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, course)
	}
}

func subscriptionByIDHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := subUC.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func subscriptionGetHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		sub, err := subUC.GetActive(r.Context(), p.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

type roleFeaturesRequest struct {
	Features []string `json:"features"`
}

// roleFeaturesHandler replaces one role's feature list at runtime,
// PUT /api/v1/admin/roles/{role}/features.
func roleFeaturesHandler(entUC usecase.EntitlementUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := model.NormalizeRole(chi.URLParam(r, "role"))

		var req roleFeaturesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrInvalidArgument)
			return
		}
		features := make([]model.Feature, 0, len(req.Features))
		for _, f := range req.Features {
			features = append(features, model.Feature(f))
		}
		if err := entUC.SetRoleFeatures(r.Context(), role, features); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"role": string(role), "status": "updated"})
	}
}

// reconcileEvent feeds a verified provider event through the orchestrator and
// counts the outcome.
func reconcileEvent(r *http.Request, enrollUC usecase.EnrollmentUseCase, ev adapter.CheckoutEvent) error {
	if ev.Type == adapter.EventIgnored {
		metrics.IncWebhookEvent("ignored", "skipped")
		return nil
	}
	if err := enrollUC.Reconcile(r.Context(), ev); err != nil {
		metrics.IncWebhookEvent(string(ev.Type), "error")
		return err
	}
	metrics.IncWebhookEvent(string(ev.Type), "applied")
	return nil
}
