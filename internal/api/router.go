package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"teleimage/internal/api/middleware"
	"teleimage/internal/telegram"
)

// Deps are the collaborators behind the HTTP surface. Webhooks may be nil.
type Deps struct {
	Bot           Dispatcher
	Logs          LogStore
	Webhooks      WebhookManager
	UpdateTimeout time.Duration
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	timeout := deps.UpdateTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	h := &Handler{
		bot:           deps.Bot,
		logs:          deps.Logs,
		webhooks:      deps.Webhooks,
		updateTimeout: timeout,
		log:           logger.With().Str("component", "api").Logger(),
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	r.Post(telegram.WebhookPath, h.TelegramWebhook)
	r.Post("/api/telegram/set-webhook", h.SetWebhook)
	r.Post("/api/telegram/delete-webhook", h.DeleteWebhook)
	r.Get("/api/telegram/webhook-status", h.WebhookStatus)

	r.Get("/api/analytics", h.Analytics)
	r.Get("/api/analytics/raw", h.AnalyticsRaw)
	r.Get("/api/analytics/users", h.AnalyticsUsers)
	r.Get("/api/database-status", h.DatabaseStatus)

	return r
}
