// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the quill server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// RequestBuckets defines histogram buckets for API request latencies,
// ranging from 5ms to 10s.
var RequestBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quill_request_duration_seconds",
			Help:    "Request duration",
			Buckets: RequestBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthFailuresTotal counts rejected credentials by reason
	// ("unauthenticated" or "forbidden").
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"reason"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quill_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)

	// NoteOperationsTotal counts service operations by name and outcome
	// ("ok", "invalid", "not_found", "conflict", "unauthenticated", "error").
	NoteOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_notes_operations_total",
			Help: "Note service operations",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		RateLimitRejectedTotal,
		NoteOperationsTotal,
	)
}
