package request

import (
	"strings"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase"
)

// CreatePaymentRequest is the checkout payload for a new PIX charge.
type CreatePaymentRequest struct {
	Type          string `json:"type" binding:"required" example:"MONTHLY_DUE"`
	PlanID        string `json:"plan_id,omitempty" example:"plan-monthly"`
	AppointmentID string `json:"appointment_id,omitempty"`
	PayerDocument string `json:"payer_document" binding:"required" example:"529.982.247-25"`
	PayerEmail    string `json:"payer_email,omitempty" example:"maria@example.com"`
	PayerName     string `json:"payer_name,omitempty" example:"Maria da Silva"`
}

func (r CreatePaymentRequest) ToInput() usecase.CreateChargeInput {
	return usecase.CreateChargeInput{
		Type:          entities.PaymentType(strings.ToUpper(strings.TrimSpace(r.Type))),
		PlanID:        strings.TrimSpace(r.PlanID),
		AppointmentID: strings.TrimSpace(r.AppointmentID),
		PayerDocument: r.PayerDocument,
		PayerEmail:    strings.TrimSpace(r.PayerEmail),
		PayerName:     strings.TrimSpace(r.PayerName),
	}
}
