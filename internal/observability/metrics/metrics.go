package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes application-level instruments on the default prometheus
// registry, scraped via /metrics.
type Metrics struct {
	ordersSettled      *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
	unresolvedPayments prometheus.Counter
	gatewayRequests    *prometheus.CounterVec
	notificationsSent  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ordersSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursekart",
			Name:      "orders_settled_total",
			Help:      "Orders settled, labelled by settlement path.",
		}, []string{"source"}),
		webhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursekart",
			Name:      "webhook_events_total",
			Help:      "Gateway webhook events, labelled by outcome.",
		}, []string{"outcome"}),
		unresolvedPayments: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "coursekart",
			Name:      "unresolved_payments_total",
			Help:      "Webhook payments with no matching order and no reconstructable owner.",
		}),
		gatewayRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursekart",
			Name:      "gateway_requests_total",
			Help:      "Outbound payment gateway calls, labelled by result.",
		}, []string{"result"}),
		notificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursekart",
			Name:      "notifications_sent_total",
			Help:      "Receipt notifications, labelled by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordOrderSettled(source string) {
	if m == nil {
		return
	}
	m.ordersSettled.WithLabelValues(normalize(source)).Inc()
}

func (m *Metrics) RecordWebhookEvent(outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalize(outcome)).Inc()
}

func (m *Metrics) RecordUnresolvedPayment() {
	if m == nil {
		return
	}
	m.unresolvedPayments.Inc()
}

func (m *Metrics) RecordGatewayRequest(result string) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(normalize(result)).Inc()
}

func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notificationsSent.WithLabelValues(normalize(outcome)).Inc()
}

func normalize(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "unknown"
	}
	return label
}
