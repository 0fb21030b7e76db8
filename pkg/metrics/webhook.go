package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records outcomes for inbound billing webhook deliveries.
type WebhookMetrics struct {
	duration   *prometheus.HistogramVec
	processed  *prometheus.CounterVec
	duplicate  *prometheus.CounterVec
	unresolved *prometheus.CounterVec
	failure    *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook event processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_processed",
		Help: "Webhook events applied to entitlement state.",
	}, []string{"event_type"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate",
		Help: "Webhook deliveries skipped because the event was already processed.",
	}, []string{"event_type"})
	unresolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_unresolved",
		Help: "Webhook events acknowledged without a matching teacher account.",
	}, []string{"event_type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_failure",
		Help: "Webhook events that failed processing and were surfaced for redelivery.",
	}, []string{"event_type"})
	reg.MustRegister(duration, processed, duplicate, unresolved, failure)
	return &WebhookMetrics{
		duration:   duration,
		processed:  processed,
		duplicate:  duplicate,
		unresolved: unresolved,
		failure:    failure,
	}
}

// ObserveDuration records the processing duration for the event type.
func (m *WebhookMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncProcessed increments the applied counter for the event type.
func (m *WebhookMetrics) IncProcessed(eventType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDuplicate increments the duplicate counter for the event type.
func (m *WebhookMetrics) IncDuplicate(eventType string) {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncUnresolved increments the unresolved counter for the event type.
func (m *WebhookMetrics) IncUnresolved(eventType string) {
	if m == nil || m.unresolved == nil {
		return
	}
	m.unresolved.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailure increments the failure counter for the event type.
func (m *WebhookMetrics) IncFailure(eventType string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	return eventType
}
