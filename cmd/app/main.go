package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-booking-platform/internal/config"
	"course-booking-platform/internal/domain/model"
	pg "course-booking-platform/internal/infra/db/postgres"
	"course-booking-platform/internal/infra/logging"
	"course-booking-platform/internal/infra/notify"
	"course-booking-platform/internal/infra/payment"
	red "course-booking-platform/internal/infra/redis"
	"course-booking-platform/internal/infra/sched"
	"course-booking-platform/internal/infra/web"
	"course-booking-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)
	bookingRepo := pg.NewBookingRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)

	// ---- Adapters ----
	gateway := payment.NewStripeGateway(&cfg.Stripe)
	notifier := notify.NewLogSender(*logger)

	// ---- Use cases ----
	entUC, err := usecase.NewEntitlementUseCase(model.DefaultCatalog())
	if err != nil {
		logger.Fatal().Err(err).Msg("entitlement catalog")
	}
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, txm, *logger)
	planUC := usecase.NewPlanUseCase(planRepo)
	courseUC := usecase.NewCourseUseCase(courseRepo, bookingRepo)
	enrollUC := usecase.NewEnrollmentUseCase(courseRepo, enrollmentRepo, paymentRepo, userRepo, txm, gateway, notifier, *logger)

	// ---- HTTP ----
	guard := web.NewGuard(entUC, subUC, bookingRepo, subRepo, paymentRepo, courseRepo)
	webhook := web.NewWebhookHandler(gateway, enrollUC, logger)
	srv := web.NewServer(cfg, guard, rateLimiter, enrollUC, entUC, subUC, planUC, courseUC, webhook, logger)
	server := web.New(srv)

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Workers ----
	reaper := sched.NewCheckoutReaper(enrollUC, paymentRepo, gateway, cfg.Worker.ReaperInterval, cfg.Worker.StaleAfter, logger)
	go func() { _ = reaper.Run(ctx) }()

	expiry := sched.NewExpiryWorker(cfg.Worker.ExpiryInterval, subUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
