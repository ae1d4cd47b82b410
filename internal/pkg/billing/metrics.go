package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// activationsTotal counts activation attempts by confirmation path and outcome.
	activationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipfox",
		Subsystem: "billing",
		Name:      "activations_total",
		Help:      "Entitlement activations by source and outcome.",
	}, []string{"source", "outcome"})

	// WebhookRequestsTotal counts webhook requests by event kind and HTTP status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipfox",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Stripe webhook requests by event kind and HTTP status.",
	}, []string{"kind", "status"})

	// WebhookDuration tracks webhook handling latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clipfox",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Stripe webhook handling duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
)
