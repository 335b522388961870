package usecase

import "errors"

var (
	ErrPaymentNotFound            = errors.New("payment not found")
	ErrInvalidPaymentID           = errors.New("invalid payment id")
	ErrInvalidPaymentType         = errors.New("invalid payment type")
	ErrInvalidPayerDocument       = errors.New("invalid payer document")
	ErrMissingPlanID              = errors.New("plan_id is required for monthly dues")
	ErrMissingAppointmentID       = errors.New("appointment_id is required for consultations")
	ErrPlanNotFound               = errors.New("plan not found")
	ErrPlanInactive               = errors.New("plan is not active")
	ErrInvalidPlanID              = errors.New("invalid plan id")
	ErrAppointmentNotFound        = errors.New("appointment not found")
	ErrAppointmentNotPayable      = errors.New("appointment is not awaiting payment")
	ErrSubscriptionNotFound       = errors.New("subscription not found")
	ErrUnknownPlanDuration        = errors.New("unknown plan duration class")
	ErrInvalidChargeAmount        = errors.New("charge amount must be positive")
	ErrPaymentGatewayNotSet       = errors.New("payment gateway not configured")
	ErrPaymentProviderUnavailable = errors.New("payment provider unavailable")
	ErrPaymentGatewayBadRequest   = errors.New("payment gateway bad request")
	ErrPaymentGatewayUnauthorized = errors.New("payment gateway unauthorized")
	ErrWebhookUnauthorized        = errors.New("webhook unauthorized")
	ErrInvalidWebhookPayload      = errors.New("invalid webhook payload")
)
