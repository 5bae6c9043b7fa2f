package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleimage_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teleimage_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"method", "path"},
	)

	// Bot metrics
	Updates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleimage_updates_total",
			Help: "Telegram updates handled, by outcome",
		},
		[]string{"outcome"},
	)

	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleimage_generations_total",
			Help: "Image generation calls",
		},
		[]string{"model", "result"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teleimage_generation_duration_seconds",
			Help:    "Image generation latency",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model"},
	)

	TelegramSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleimage_telegram_sends_total",
			Help: "Outbound Telegram calls",
		},
		[]string{"method", "result"},
	)

	// Storage metrics
	LogWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleimage_log_writes_total",
			Help: "Activity log appends",
		},
		[]string{"result"},
	)
)
