package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcraft_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventcraft_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ChatsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcraft_chats_created_total",
			Help: "Total chats created",
		},
		[]string{"topology"}, // "user", "vendor", "system"
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcraft_messages_sent_total",
			Help: "Total messages stored",
		},
		[]string{"sender_type"},
	)

	MessagesMarkedSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventcraft_messages_marked_seen_total",
			Help: "Total messages moved from SENT to SEEN",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcraft_rate_limit_hits_total",
			Help: "Requests rejected by the send rate limiter",
		},
		[]string{"action"},
	)

	// Delivery loop metrics (client side)
	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcraft_poll_ticks_total",
			Help: "Poll ticks by concern and outcome",
		},
		[]string{"concern", "outcome"}, // outcome: "applied", "skipped", "stale", "failed"
	)
)
