package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess        = "success"
	OutcomeFailure        = "failure"
	OutcomeTimeout        = "timeout"
	OutcomeInternal       = "internal"
	OutcomeRetryExhausted = "retry_exhausted"

	AttemptFirst = "first"
	AttemptRetry = "retry"

	DeliveryAccepted = "accepted"
	DeliveryRejected = "rejected"
	DeliveryError    = "error"
)

var (
	StatusResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_status_resolutions_total",
			Help: "Status resolutions by terminal outcome",
		},
		[]string{"outcome"},
	)

	StatusRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_status_retries_total",
			Help: "Retry-after responses honoured by the status resolver",
		},
	)

	StatusAttemptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_status_attempt_duration_seconds",
			Help:    "Time until the first of the two racing status calls settles",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_events_dispatched_total",
			Help: "Inbound events fanned out to their recipients",
		},
	)

	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Payload send attempts by attempt kind and result",
		},
		[]string{"attempt", "result"},
	)

	DeliveriesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_deliveries_in_flight",
			Help: "Recipient deliveries currently running, including cooldowns",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	HTTPPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_http_panics_total",
			Help: "Handler panics recovered by the HTTP server",
		},
	)
)
