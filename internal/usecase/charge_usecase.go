package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultProviderTimeout = 15 * time.Second

// CreateChargeInput is the checkout request for a new PIX charge.
type CreateChargeInput struct {
	Type          entities.PaymentType
	PlanID        string
	AppointmentID string
	PayerDocument string
	PayerEmail    string
	PayerName     string
}

// ChargeConfig holds pricing and timing for charge creation.
type ChargeConfig struct {
	Expiration             time.Duration
	ProviderTimeout        time.Duration
	ConsultationPrice      decimal.Decimal
	FirstConsultationPrice decimal.Decimal
}

// IChargeUseCase issues PIX charges.
//
// A charge is persisted only after the provider accepted it; for monthly dues
// the companion PENDING subscription is written in the same transaction.
type IChargeUseCase interface {
	CreateCharge(ctx context.Context, in CreateChargeInput) (entities.Payment, error)
}

type ChargeUseCase struct {
	repo            interfaces.IPaymentRepository
	planRepo        interfaces.IPlanRepository
	appointmentRepo interfaces.IAppointmentRepository
	gateway         interfaces.IPixGateway
	metrics         interfaces.IPaymentMetrics
	cfg             ChargeConfig
	now             func() time.Time
}

var _ IChargeUseCase = (*ChargeUseCase)(nil)

func NewChargeUseCase(
	repo interfaces.IPaymentRepository,
	planRepo interfaces.IPlanRepository,
	appointmentRepo interfaces.IAppointmentRepository,
	gateway interfaces.IPixGateway,
	metrics interfaces.IPaymentMetrics,
	cfg ChargeConfig,
) *ChargeUseCase {
	if cfg.Expiration <= 0 {
		cfg.Expiration = entities.DefaultPaymentExpiration
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ChargeUseCase{
		repo:            repo,
		planRepo:        planRepo,
		appointmentRepo: appointmentRepo,
		gateway:         gateway,
		metrics:         metrics,
		cfg:             cfg,
		now:             time.Now,
	}
}

func (u *ChargeUseCase) CreateCharge(ctx context.Context, in CreateChargeInput) (entities.Payment, error) {
	log.Printf("[payment][charge] create start type=%s plan_id=%q appointment_id=%q", in.Type, in.PlanID, in.AppointmentID)

	if !in.Type.IsValid() {
		return entities.Payment{}, ErrInvalidPaymentType
	}
	in.PlanID = strings.TrimSpace(in.PlanID)
	in.AppointmentID = strings.TrimSpace(in.AppointmentID)
	if in.Type == entities.PaymentTypeMonthlyDue && in.PlanID == "" {
		return entities.Payment{}, ErrMissingPlanID
	}
	if in.Type.IsConsultation() && in.AppointmentID == "" {
		return entities.Payment{}, ErrMissingAppointmentID
	}

	// Rejected before anything leaves the process.
	cpf, err := NormalizeCPF(in.PayerDocument)
	if err != nil {
		log.Printf("[payment][charge] invalid payer document type=%s", in.Type)
		return entities.Payment{}, err
	}
	if u.gateway == nil {
		log.Printf("[payment][charge] gateway not configured")
		return entities.Payment{}, ErrPaymentGatewayNotSet
	}

	amount, description, err := u.resolvePrice(ctx, in)
	if err != nil {
		log.Printf("[payment][charge] price resolution failed type=%s err=%v", in.Type, err)
		return entities.Payment{}, err
	}

	now := u.now().UTC()
	p := entities.Payment{
		ID:            uuid.NewString(),
		Type:          in.Type,
		Amount:        amount,
		Description:   description,
		Status:        entities.PaymentStatusPending,
		PayerDocument: cpf,
		AppointmentID: in.AppointmentID,
		ExpiresAt:     now.Add(u.cfg.Expiration),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var sub *entities.Subscription
	if in.Type == entities.PaymentTypeMonthlyDue {
		sub = &entities.Subscription{
			ID:            uuid.NewString(),
			PlanID:        in.PlanID,
			PayerDocument: cpf,
			Status:        entities.SubscriptionStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		p.PlanID = in.PlanID
		p.SubscriptionID = sub.ID
	}

	providerCtx, cancel := context.WithTimeout(ctx, u.cfg.ProviderTimeout)
	defer cancel()

	log.Printf("[payment][charge] calling payment gateway payment_id=%s amount=%s", p.ID, p.Amount.StringFixed(2))
	charge, err := u.gateway.CreatePixCharge(providerCtx, interfaces.PixChargeRequest{
		ExternalReference: p.ID,
		Description:       description,
		Amount:            amount,
		PayerDocument:     cpf,
		PayerEmail:        strings.TrimSpace(in.PayerEmail),
		PayerName:         strings.TrimSpace(in.PayerName),
		ExpiresAt:         p.ExpiresAt,
	})
	if err != nil {
		log.Printf("[payment][charge] payment gateway failed payment_id=%s err=%v", p.ID, err)
		mapped := mapGatewayError(err)
		u.metrics.IncChargeFailed(gatewayFailureReason(mapped))
		return entities.Payment{}, mapped
	}
	if strings.TrimSpace(charge.ProviderIdentifier) == "" || strings.TrimSpace(charge.PixCode) == "" {
		log.Printf("[payment][charge] payment gateway returned incomplete charge payment_id=%s provider_status=%s", p.ID, charge.ProviderStatus)
		u.metrics.IncChargeFailed("incomplete_response")
		return entities.Payment{}, fmt.Errorf("%w: incomplete pix charge", ErrPaymentProviderUnavailable)
	}

	p.ProviderIdentifier = charge.ProviderIdentifier
	p.PixCode = charge.PixCode
	p.PixQRCodeBase64 = charge.QRCodeBase64

	created, err := u.repo.Create(ctx, p, sub)
	if err != nil {
		// The provider charge is left to expire unpaid.
		log.Printf("[payment][charge] payment repository create failed payment_id=%s provider_identifier=%s err=%v", p.ID, p.ProviderIdentifier, err)
		u.metrics.IncChargeFailed("persistence")
		return entities.Payment{}, err
	}

	u.metrics.IncChargeCreated(string(created.Type))
	log.Printf("[payment][charge] create success payment_id=%s provider_identifier=%s expires_at=%s", created.ID, created.ProviderIdentifier, created.ExpiresAt.Format(time.RFC3339))
	return created, nil
}

func (u *ChargeUseCase) resolvePrice(ctx context.Context, in CreateChargeInput) (decimal.Decimal, string, error) {
	if in.Type == entities.PaymentTypeMonthlyDue {
		if u.planRepo == nil {
			return decimal.Zero, "", errors.New("plan repository not configured")
		}
		plan, err := u.planRepo.GetByID(ctx, in.PlanID)
		if err != nil {
			return decimal.Zero, "", err
		}
		if plan.ID == "" {
			return decimal.Zero, "", ErrPlanNotFound
		}
		if !plan.Active {
			return decimal.Zero, "", ErrPlanInactive
		}
		if !plan.Price.IsPositive() {
			return decimal.Zero, "", ErrInvalidChargeAmount
		}
		return plan.Price, fmt.Sprintf("Mensalidade %s", plan.Name), nil
	}

	if u.appointmentRepo == nil {
		return decimal.Zero, "", errors.New("appointment repository not configured")
	}
	apt, err := u.appointmentRepo.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return decimal.Zero, "", err
	}
	if apt.ID == "" {
		return decimal.Zero, "", ErrAppointmentNotFound
	}
	if apt.Status != entities.AppointmentStatusPendingPayment {
		return decimal.Zero, "", ErrAppointmentNotPayable
	}

	price := u.cfg.ConsultationPrice
	description := fmt.Sprintf("Consulta %s", apt.ID)
	if in.Type == entities.PaymentTypeFirstConsultation {
		price = u.cfg.FirstConsultationPrice
		description = fmt.Sprintf("Primeira consulta %s", apt.ID)
	}
	if !price.IsPositive() {
		return decimal.Zero, "", ErrInvalidChargeAmount
	}
	return price, description, nil
}

// mapGatewayError keeps caller mistakes distinguishable from provider
// outages; everything that is not clearly a rejected request is retryable.
func mapGatewayError(err error) error {
	switch {
	case isGatewayUnauthorized(err):
		return ErrPaymentGatewayUnauthorized
	case isGatewayBadRequest(err):
		return ErrPaymentGatewayBadRequest
	default:
		return fmt.Errorf("%w: %v", ErrPaymentProviderUnavailable, err)
	}
}

func gatewayFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrPaymentGatewayUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPaymentGatewayBadRequest):
		return "bad_request"
	default:
		return "unavailable"
	}
}

func isGatewayBadRequest(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"bad_request\"") || strings.Contains(msg, "\"status\":400")
}

func isGatewayUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"unauthorized\"") || strings.Contains(msg, "\"status\":401")
}
