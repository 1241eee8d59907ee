package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/availability"
	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/config"
	"github.com/clinicdesk/clinic-booking/internal/observability/metrics"
	"github.com/clinicdesk/clinic-booking/internal/payment"
	"github.com/clinicdesk/clinic-booking/internal/ticket"
)

type RouterConfig struct {
	Booking      *booking.Service
	Availability *availability.Service
	Bookings     booking.Repository
	Intents      payment.Repository
	Sessions     *payment.SessionClient
	Reconciler   *payment.Reconciler
	Tickets      ticket.Allocator
	Metrics      *metrics.BookingMetrics
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       *zap.Logger
	Cfg          config.Config
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(RoleMiddleware(cfg.Cfg.JWTSecret))

	validate := validator.New()

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/availability", availabilityHandler(cfg.Availability))

	r.Route("/appointments", func(r chi.Router) {
		r.With(httprate.LimitByIP(60, time.Minute)).
			Post("/", createAppointmentHandler(cfg.Booking, validate, cfg.Metrics))

		r.Get("/{id}", getAppointmentHandler(cfg.Booking))
		r.Delete("/{id}", cancelAppointmentHandler(cfg.Booking))
		r.Get("/{id}/ticket", getTicketHandler(cfg.Tickets))

		r.Post("/{id}/payment-session", createPaymentSessionHandler(cfg.Bookings, cfg.Intents, cfg.Sessions, cfg.Cfg.ConsultationFee))
		r.With(RequireStaff).Post("/{id}/pay", cashPayHandler(cfg.Reconciler))
	})

	r.Route("/payments/gateway", func(r chi.Router) {
		r.Post("/ipn", gatewayWebhookHandler(cfg.Reconciler))
		r.Post("/return", gatewayReturnPostHandler(cfg.Reconciler))
		r.Get("/return", gatewayReturnGetHandler(cfg.Reconciler))
	})

	return r
}
