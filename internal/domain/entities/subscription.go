package entities

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "PENDING"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
)

// Subscription is the association membership paid through MONTHLY_DUE charges.
//
// It is created PENDING together with its payment at checkout and becomes
// ACTIVE only when that payment is confirmed. Cancellation and expiry belong
// to the back-office.
//
// Storage model (DynamoDB):
//   - PK: id

type Subscription struct {
	ID              string             `json:"id"`
	PlanID          string             `json:"plan_id"`
	PayerDocument   string             `json:"payer_document"`
	Status          SubscriptionStatus `json:"status"`
	StartDate       *time.Time         `json:"start_date,omitempty"`
	EndDate         *time.Time         `json:"end_date,omitempty"`
	NextBillingDate *time.Time         `json:"next_billing_date,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Activate returns a copy of s running from now for the given number of months.
func (s Subscription) Activate(now time.Time, months int) Subscription {
	start := now
	end := start.AddDate(0, months, 0)
	next := end
	s.Status = SubscriptionStatusActive
	s.StartDate = &start
	s.EndDate = &end
	s.NextBillingDate = &next
	s.UpdatedAt = now
	return s
}
