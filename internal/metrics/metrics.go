package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Provider webhook deliveries by event type and outcome",
	}, []string{"event_type", "outcome"})

	WebhookSignatureFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_failures_total",
		Help: "Webhook deliveries rejected by signature verification",
	})

	IntegrityMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_integrity_mismatches_total",
		Help: "Provider identifiers that conflicted with the one already on a booking",
	})

	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_requests_total",
		Help: "Payment provider API calls by operation and result",
	}, []string{"operation", "result"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_request_duration_seconds",
		Help:    "Payment provider API call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func ObserveProviderCall(operation string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderRequestsTotal.WithLabelValues(operation, result).Inc()
	ProviderRequestDuration.WithLabelValues(operation).Observe(seconds)
}
