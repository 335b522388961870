package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle of a PIX charge.
//
// Allowed transitions: PENDING -> PAID, PENDING -> FAILED, PENDING -> EXPIRED.
// PAID, FAILED and EXPIRED are terminal.

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed || s == PaymentStatusExpired
}

// PaymentType tells which entity a payment settles.
type PaymentType string

const (
	PaymentTypeMonthlyDue        PaymentType = "MONTHLY_DUE"
	PaymentTypeConsultation      PaymentType = "CONSULTATION"
	PaymentTypeFirstConsultation PaymentType = "FIRST_CONSULTATION"
)

func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeMonthlyDue, PaymentTypeConsultation, PaymentTypeFirstConsultation:
		return true
	}
	return false
}

func (t PaymentType) IsConsultation() bool {
	return t == PaymentTypeConsultation || t == PaymentTypeFirstConsultation
}

// DefaultPaymentExpiration is the lifetime of a PIX copy-paste code.
const DefaultPaymentExpiration = 30 * time.Minute

// Payment is the financial record of one PIX charge. It is never deleted.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI (status-expires_at-index): status + expires_at, used by the expiration sweep
//   - guard item "provider#<provider_identifier>" in the same table keeps provider ids unique
//
// LastWebhookPayload keeps the raw body of the latest provider callback for audit/replay.

type Payment struct {
	ID                 string          `json:"id"`
	ProviderIdentifier string          `json:"provider_identifier"`
	Type               PaymentType     `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	Status             PaymentStatus   `json:"status"`
	PixCode            string          `json:"pix_code"`
	PixQRCodeBase64    string          `json:"pix_qr_code_base64,omitempty"`
	PayerDocument      string          `json:"payer_document"`

	PlanID         string `json:"plan_id,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	AppointmentID  string `json:"appointment_id,omitempty"`

	ExpiresAt          time.Time       `json:"expires_at"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	WebhookReceived    bool            `json:"webhook_received"`
	LastWebhookPayload json.RawMessage `json:"last_webhook_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveStatus reports a PENDING payment past its expiration as EXPIRED.
// Nothing is written; the sweep persists the same outcome when enabled.
func (p Payment) EffectiveStatus(now time.Time) PaymentStatus {
	if p.Status == PaymentStatusPending && !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt) {
		return PaymentStatusExpired
	}
	return p.Status
}

// MarkPaid returns a copy of p settled at now. The caller must have checked
// that p is still PENDING.
func (p Payment) MarkPaid(now time.Time, payload json.RawMessage) Payment {
	paidAt := now
	p.Status = PaymentStatusPaid
	p.PaidAt = &paidAt
	p.WebhookReceived = true
	p.LastWebhookPayload = payload
	p.UpdatedAt = now
	return p
}
