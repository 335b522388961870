package entities

import "github.com/shopspring/decimal"

// PlanDuration is the billing period of a membership plan.
type PlanDuration string

const (
	PlanDurationMonthly    PlanDuration = "MONTHLY"
	PlanDurationQuarterly  PlanDuration = "QUARTERLY"
	PlanDurationSemiannual PlanDuration = "SEMIANNUAL"
	PlanDurationAnnual     PlanDuration = "ANNUAL"
)

// Months returns how far a subscription is extended on activation.
// ok is false for a class this service does not know.
func (d PlanDuration) Months() (months int, ok bool) {
	switch d {
	case PlanDurationMonthly:
		return 1, true
	case PlanDurationQuarterly:
		return 3, true
	case PlanDurationSemiannual:
		return 6, true
	case PlanDurationAnnual:
		return 12, true
	}
	return 0, false
}

// Plan is managed by the admin back-office; this service only reads it.
//
// Storage model (DynamoDB):
//   - PK: id

type Plan struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Duration PlanDuration    `json:"duration"`
	Price    decimal.Decimal `json:"price"`
	Active   bool            `json:"active"`
}
