package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type NotificationKind string

const NotificationPaymentConfirmed NotificationKind = "PAYMENT_CONFIRMED"

// Notification is handed to the outreach service (WhatsApp) after a payment
// is settled. Delivery is best effort.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	PaymentID      string           `json:"payment_id"`
	PaymentType    PaymentType      `json:"payment_type"`
	AppointmentID  string           `json:"appointment_id,omitempty"`
	SubscriptionID string           `json:"subscription_id,omitempty"`
	PayerDocument  string           `json:"payer_document"`
	Amount         decimal.Decimal  `json:"amount"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
