package response

import (
	"time"

	"associacao_pagamentos/internal/domain/entities"
)

type CreatePaymentResponse struct {
	PaymentID          string    `json:"payment_id"`
	PixCode            string    `json:"pix_code"`
	PixQRCodeBase64    string    `json:"pix_qr_code_base64,omitempty"`
	ProviderIdentifier string    `json:"provider_identifier"`
	ExpiresAt          time.Time `json:"expires_at"`
	Status             string    `json:"status"`
}

func FromCreatedPayment(p entities.Payment) CreatePaymentResponse {
	return CreatePaymentResponse{
		PaymentID:          p.ID,
		PixCode:            p.PixCode,
		PixQRCodeBase64:    p.PixQRCodeBase64,
		ProviderIdentifier: p.ProviderIdentifier,
		ExpiresAt:          p.ExpiresAt,
		Status:             string(p.Status),
	}
}

type PaymentStatusResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// PaymentResponse is the full payment view. The payer document and webhook
// payload are not exposed.
type PaymentResponse struct {
	PaymentID          string     `json:"payment_id"`
	ProviderIdentifier string     `json:"provider_identifier"`
	Type               string     `json:"type"`
	Amount             string     `json:"amount" example:"59.90"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	PixCode            string     `json:"pix_code"`
	PixQRCodeBase64    string     `json:"pix_qr_code_base64,omitempty"`
	PlanID             string     `json:"plan_id,omitempty"`
	SubscriptionID     string     `json:"subscription_id,omitempty"`
	AppointmentID      string     `json:"appointment_id,omitempty"`
	ExpiresAt          time.Time  `json:"expires_at"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	WebhookReceived    bool       `json:"webhook_received"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:          p.ID,
		ProviderIdentifier: p.ProviderIdentifier,
		Type:               string(p.Type),
		Amount:             p.Amount.StringFixed(2),
		Description:        p.Description,
		Status:             string(p.Status),
		PixCode:            p.PixCode,
		PixQRCodeBase64:    p.PixQRCodeBase64,
		PlanID:             p.PlanID,
		SubscriptionID:     p.SubscriptionID,
		AppointmentID:      p.AppointmentID,
		ExpiresAt:          p.ExpiresAt,
		PaidAt:             p.PaidAt,
		WebhookReceived:    p.WebhookReceived,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
