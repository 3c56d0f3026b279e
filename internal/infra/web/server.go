package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-booking-platform/internal/config"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/infra/metrics"
	rediscli "course-booking-platform/internal/infra/redis"
	"course-booking-platform/internal/usecase"
)

// Server assembles the HTTP surface: public catalog routes, guarded
// enrollment and account routes, the admin API and the provider webhook.
type Server struct {
	cfg      *config.Config
	guard    *Guard
	limiter  *rediscli.RateLimiter
	enrollUC usecase.EnrollmentUseCase
	entUC    usecase.EntitlementUseCase
	subUC    usecase.SubscriptionUseCase
	planUC   usecase.PlanUseCase
	courseUC usecase.CourseUseCase
	webhook  *WebhookHandler
	log      *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	guard *Guard,
	limiter *rediscli.RateLimiter,
	enrollUC usecase.EnrollmentUseCase,
	entUC usecase.EntitlementUseCase,
	subUC usecase.SubscriptionUseCase,
	planUC usecase.PlanUseCase,
	courseUC usecase.CourseUseCase,
	webhook *WebhookHandler,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		guard:    guard,
		limiter:  limiter,
		enrollUC: enrollUC,
		entUC:    entUC,
		subUC:    subUC,
		planUC:   planUC,
		courseUC: courseUC,
		webhook:  webhook,
		log:      logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Method(http.MethodPost, "/webhook/stripe", s.webhook)

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog.
		r.Get("/plans", plansListHandler(s.planUC))
		r.Get("/courses/{id}", courseGetHandler(s.courseUC))

		// Purchasing. Rate limited per user on top of the guard.
		r.With(
			s.require(RouteGuard{Feature: model.FeatureEnrollCourses, RequireSubscription: true}),
			s.rateLimit(),
		).Post("/enroll-course/{id}", enrollCourseHandler(s.enrollUC))

		r.With(s.require(RouteGuard{})).Post("/verify-payment", verifyPaymentHandler(s.enrollUC))
		r.With(s.require(RouteGuard{Own: OwnPayment, OwnParam: "sessionID"})).
			Get("/payment/{sessionID}/status", paymentStatusHandler(s.enrollUC))

		// Account.
		r.With(s.require(RouteGuard{})).Get("/features", featuresHandler(s.entUC))
		r.With(s.require(RouteGuard{RequireSubscription: true})).Get("/subscription", subscriptionGetHandler(s.subUC))
		r.With(s.require(RouteGuard{Own: OwnSubscription})).Get("/subscriptions/{id}", subscriptionByIDHandler(s.subUC))
		r.With(s.require(RouteGuard{Own: OwnBooking})).Get("/bookings/{id}", bookingGetHandler(s.courseUC))

		// Authoring.
		r.With(s.require(RouteGuard{Feature: model.FeatureCreateCourses})).
			Post("/courses", courseCreateHandler(s.courseUC))
		r.With(s.require(RouteGuard{Feature: model.FeatureCreateCourses, Own: OwnCourse})).
			Put("/courses/{id}", courseUpdateHandler(s.courseUC))

		// Admin.
		r.With(s.require(RouteGuard{Roles: []model.Role{model.RoleAdmin}})).
			Put("/admin/roles/{role}/features", roleFeaturesHandler(s.entUC))
	})

	base := Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.cfg.Server.RequestTimeout),
		Authenticator(s.cfg.Auth.JWTSecret),
	)
	return base
}

func (s *Server) require(g RouteGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return s.guard.Require(g)(next)
	}
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RateLimit(s.limiter, s.cfg.RateLimit.PurchaseLimit, s.cfg.RateLimit.PurchaseWindow)(next)
	}
}

// New returns the configured http.Server ready to listen.
func New(s *Server) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
