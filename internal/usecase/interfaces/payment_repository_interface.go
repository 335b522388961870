package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"associacao_pagamentos/internal/domain/entities"
)

var (
	// ErrConditionalCheckFailed is returned when the payment row is no longer in
	// the state the write was conditioned on (another request won the transition).
	ErrConditionalCheckFailed = errors.New("payment condition check failed")
	// ErrConcurrentUpdate is returned when a dependent entity changed between
	// staging and commit. Nothing was written; the caller may retry.
	ErrConcurrentUpdate = errors.New("dependent entity changed concurrently")
	// ErrDuplicateProviderIdentifier guards the uniqueness of provider ids.
	ErrDuplicateProviderIdentifier = errors.New("provider identifier already registered")
)

// PaymentConfirmation is the write set committed atomically when a payment is
// confirmed. Appointment and Subscription are nil when no transition applies.
type PaymentConfirmation struct {
	Payment      entities.Payment
	Appointment  *entities.Appointment
	Subscription *entities.Subscription
}

// IPaymentRepository abstracts DynamoDB persistence for Payment.
//
// Getters return a zero-value Payment (empty ID) when nothing is found.
// Every status write is conditioned on status = PENDING.

type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment, sub *entities.Subscription) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByProviderIdentifier(ctx context.Context, providerIdentifier string) (entities.Payment, error)
	CommitConfirmation(ctx context.Context, c PaymentConfirmation) error
	MarkFailed(ctx context.Context, id string, payload json.RawMessage, now time.Time) error
	MarkExpired(ctx context.Context, id string, now time.Time) error
	RecordWebhook(ctx context.Context, id string, payload json.RawMessage, now time.Time) error
	ListExpiredPending(ctx context.Context, now time.Time, limit int32) ([]entities.Payment, error)
}
