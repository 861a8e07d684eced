package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandbox_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	EmailsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_emails_written_total",
			Help: "Total emails written",
		},
		[]string{"kind"}, // "write", "reply" or "reply_all"
	)

	ThreadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sandbox_threads_created_total",
			Help: "Total threads created",
		},
	)

	GroupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sandbox_groups_created_total",
			Help: "Total groups created",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sandbox_store_latency_seconds",
			Help:    "Message store operation latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
	)
)
