package interfaces

// IPaymentMetrics records payment lifecycle counters.
type IPaymentMetrics interface {
	IncChargeCreated(paymentType string)
	IncChargeFailed(reason string)
	IncWebhookOutcome(outcome string)
	AddPaymentsExpired(n int)
}
