package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records payment webhook reconciliation outcomes.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	applied  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_received",
		Help: "Webhook deliveries received, by gateway.",
	}, []string{"gateway"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_applied",
		Help: "Webhook deliveries that updated an order.",
	}, []string{"gateway", "payment_status"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_skipped",
		Help: "Webhook deliveries acknowledged without applying changes.",
	}, []string{"gateway", "reason"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_failed",
		Help: "Webhook deliveries that ended in a retryable failure.",
	}, []string{"gateway"})
	reg.MustRegister(received, applied, skipped, failed)
	return &WebhookMetrics{
		received: received,
		applied:  applied,
		skipped:  skipped,
		failed:   failed,
	}
}

func (w *WebhookMetrics) IncReceived(gateway string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(normalizeLabel(gateway)).Inc()
}

func (w *WebhookMetrics) IncApplied(gateway, paymentStatus string) {
	if w == nil || w.applied == nil {
		return
	}
	w.applied.WithLabelValues(normalizeLabel(gateway), normalizeLabel(paymentStatus)).Inc()
}

func (w *WebhookMetrics) IncSkipped(gateway, reason string) {
	if w == nil || w.skipped == nil {
		return
	}
	w.skipped.WithLabelValues(normalizeLabel(gateway), normalizeLabel(reason)).Inc()
}

func (w *WebhookMetrics) IncFailed(gateway string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(gateway)).Inc()
}
