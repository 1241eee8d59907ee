package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/api"
	"github.com/clinicdesk/clinic-booking/internal/availability"
	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/config"
	"github.com/clinicdesk/clinic-booking/internal/db"
	"github.com/clinicdesk/clinic-booking/internal/observability/metrics"
	"github.com/clinicdesk/clinic-booking/internal/payment"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/internal/schedule"
	"github.com/clinicdesk/clinic-booking/internal/ticket"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up", zap.String("env", cfg.Env), zap.String("http_port", cfg.HTTPPort))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	bookingRepo := booking.NewPgRepository(pgPool)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	intentRepo := payment.NewPgRepository(pgPool)
	allocator := ticket.NewPgAllocator(pgPool, logger)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	m := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	bookingSvc := booking.NewService(bookingRepo, scheduleRepo, locker, cfg, logger)
	availabilitySvc := availability.NewService(bookingRepo, scheduleRepo, cfg.SlotIntervalMinutes, logger)
	sessions := payment.NewSessionClient(cfg, logger)
	reconciler := payment.NewReconciler(intentRepo, bookingRepo, allocator, cfg.GatewaySecret, cfg.ConsultationFee, logger, m)

	router := api.NewRouter(api.RouterConfig{
		Booking:      bookingSvc,
		Availability: availabilitySvc,
		Bookings:     bookingRepo,
		Intents:      intentRepo,
		Sessions:     sessions,
		Reconciler:   reconciler,
		Tickets:      allocator,
		Metrics:      m,
		PgPool:       pgPool,
		Redis:        rdb,
		Logger:       logger,
		Cfg:          cfg,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "prod" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
