// Package metrics exposes the Prometheus instruments for the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "natours_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CheckoutSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "natours_checkout_sessions_total",
			Help: "Total number of checkout sessions created",
		},
	)

	BookingsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "natours_bookings_recorded_total",
			Help: "Total number of bookings recorded from webhook events",
		},
	)

	WebhookSignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "natours_webhook_signature_failures_total",
			Help: "Total number of webhook deliveries with an invalid signature",
		},
	)
)
