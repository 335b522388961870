package metrics

import (
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics exposes the payment lifecycle counters to Prometheus.
type PaymentMetrics struct {
	chargesCreated   *prometheus.CounterVec
	chargesFailed    *prometheus.CounterVec
	webhookOutcomes  *prometheus.CounterVec
	paymentsExpired  prometheus.Counter
	notificationsOut *prometheus.CounterVec
}

var _ interfaces.IPaymentMetrics = (*PaymentMetrics)(nil)

func NewPaymentMetrics(registry prometheus.Registerer) *PaymentMetrics {
	factory := promauto.With(registry)
	return &PaymentMetrics{
		chargesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pix_charges_created_total",
				Help: "PIX charges issued and persisted, by payment type",
			},
			[]string{"type"},
		),
		chargesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pix_charges_failed_total",
				Help: "PIX charges that could not be issued, by reason",
			},
			[]string{"reason"},
		),
		webhookOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_outcomes_total",
				Help: "Provider webhook deliveries, by processing outcome",
			},
			[]string{"outcome"},
		),
		paymentsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payments_expired_total",
				Help: "Pending payments moved to EXPIRED by the sweeper",
			},
		),
		notificationsOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_notifications_total",
				Help: "Payment confirmation notifications, by result (sent, failed, dropped)",
			},
			[]string{"result"},
		),
	}
}

func (m *PaymentMetrics) IncChargeCreated(paymentType string) {
	m.chargesCreated.WithLabelValues(paymentType).Inc()
}

func (m *PaymentMetrics) IncChargeFailed(reason string) {
	m.chargesFailed.WithLabelValues(reason).Inc()
}

func (m *PaymentMetrics) IncWebhookOutcome(outcome string) {
	m.webhookOutcomes.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) AddPaymentsExpired(n int) {
	if n > 0 {
		m.paymentsExpired.Add(float64(n))
	}
}

func (m *PaymentMetrics) IncNotification(result string) {
	m.notificationsOut.WithLabelValues(result).Inc()
}
