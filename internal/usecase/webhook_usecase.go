package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
)

// WebhookOutcome is what a single provider callback did to the payment.
type WebhookOutcome string

const (
	WebhookOutcomeAppliedPaid    WebhookOutcome = "APPLIED_PAID"
	WebhookOutcomeAppliedFailed  WebhookOutcome = "APPLIED_FAILED"
	WebhookOutcomeDuplicate      WebhookOutcome = "DUPLICATE"
	WebhookOutcomeIgnoredUnknown WebhookOutcome = "IGNORED_UNKNOWN"
	WebhookOutcomeAudited        WebhookOutcome = "AUDITED"
)

// metric labels for rejected deliveries, which never reach the state machine
const (
	webhookRejectedUnauthorized = "REJECTED_UNAUTHORIZED"
	webhookRejectedInvalid      = "REJECTED_INVALID"
)

// ProviderStatusClass groups the provider's many status strings.
type ProviderStatusClass string

const (
	ProviderStatusCompleted ProviderStatusClass = "completed"
	ProviderStatusFailed    ProviderStatusClass = "failed"
	ProviderStatusOther     ProviderStatusClass = "other"
)

var (
	completedStatuses = map[string]struct{}{
		"completed": {}, "approved": {}, "paid": {}, "accredited": {}, "confirmed": {},
	}
	failedStatuses = map[string]struct{}{
		"failed": {}, "rejected": {}, "refunded": {}, "cancelled": {}, "canceled": {}, "charged_back": {}, "expired": {},
	}
)

// ClassifyProviderStatus is case-insensitive.
func ClassifyProviderStatus(status string) ProviderStatusClass {
	s := strings.ToLower(strings.TrimSpace(status))
	if _, ok := completedStatuses[s]; ok {
		return ProviderStatusCompleted
	}
	if _, ok := failedStatuses[s]; ok {
		return ProviderStatusFailed
	}
	return ProviderStatusOther
}

// WebhookEvent is the part of a provider callback the state machine reads.
type WebhookEvent struct {
	ProviderIdentifier string
	Status             string
	Raw                json.RawMessage
}

type webhookEnvelope struct {
	Data struct {
		ID     json.RawMessage `json:"id"`
		Status string          `json:"status"`
	} `json:"data"`
	Status string `json:"status"`
}

// ParseWebhookPayload accepts {"data":{"id":...,"status":...}} where id is a
// string or a number. Unknown fields are ignored; a top-level status is used
// when data.status is absent.
func ParseWebhookPayload(body []byte) (WebhookEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return WebhookEvent{}, fmt.Errorf("%w: empty body", ErrInvalidWebhookPayload)
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	id, err := normalizeProviderID(env.Data.ID)
	if err != nil {
		return WebhookEvent{}, err
	}

	status := strings.TrimSpace(env.Data.Status)
	if status == "" {
		status = strings.TrimSpace(env.Status)
	}

	return WebhookEvent{
		ProviderIdentifier: id,
		Status:             status,
		Raw:                json.RawMessage(append([]byte(nil), body...)),
	}, nil
}

func normalizeProviderID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing data.id", ErrInvalidWebhookPayload)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("%w: missing data.id", ErrInvalidWebhookPayload)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: data.id must be a string or number", ErrInvalidWebhookPayload)
	}
	return n.String(), nil
}

// WebhookResult is returned for every accepted delivery.
type WebhookResult struct {
	Outcome   WebhookOutcome
	PaymentID string
}

// IWebhookUseCase processes provider callbacks.
//
// Process is idempotent: delivering the same callback any number of times,
// concurrently or not, has the effect of delivering it once. A returned error
// other than ErrWebhookUnauthorized/ErrInvalidWebhookPayload means nothing was
// committed and the provider should retry.
type IWebhookUseCase interface {
	Process(ctx context.Context, authorization string, body []byte) (WebhookResult, error)
}

type WebhookUseCase struct {
	auth      *WebhookAuthenticator
	repo      interfaces.IPaymentRepository
	confirmer IAppointmentConfirmer
	activator ISubscriptionActivator
	notifier  interfaces.INotifier
	metrics   interfaces.IPaymentMetrics
	now       func() time.Time
}

var _ IWebhookUseCase = (*WebhookUseCase)(nil)

func NewWebhookUseCase(
	auth *WebhookAuthenticator,
	repo interfaces.IPaymentRepository,
	confirmer IAppointmentConfirmer,
	activator ISubscriptionActivator,
	notifier interfaces.INotifier,
	metrics interfaces.IPaymentMetrics,
) *WebhookUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &WebhookUseCase{
		auth:      auth,
		repo:      repo,
		confirmer: confirmer,
		activator: activator,
		notifier:  notifier,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (u *WebhookUseCase) Process(ctx context.Context, authorization string, body []byte) (WebhookResult, error) {
	if !u.auth.Authenticate(authorization) {
		log.Printf("[payment][webhook] unauthorized delivery rejected")
		u.metrics.IncWebhookOutcome(webhookRejectedUnauthorized)
		return WebhookResult{}, ErrWebhookUnauthorized
	}

	ev, err := ParseWebhookPayload(body)
	if err != nil {
		log.Printf("[payment][webhook] invalid payload err=%v", err)
		u.metrics.IncWebhookOutcome(webhookRejectedInvalid)
		return WebhookResult{}, err
	}
	log.Printf("[payment][webhook] received provider_identifier=%s status=%q", ev.ProviderIdentifier, ev.Status)

	p, err := u.repo.GetByProviderIdentifier(ctx, ev.ProviderIdentifier)
	if err != nil {
		log.Printf("[payment][webhook] lookup failed provider_identifier=%s err=%v", ev.ProviderIdentifier, err)
		return WebhookResult{}, err
	}
	if p.ID == "" {
		log.Printf("[payment][webhook] unknown provider_identifier=%s ignored", ev.ProviderIdentifier)
		return u.done(WebhookOutcomeIgnoredUnknown, ""), nil
	}

	now := u.now().UTC()
	class := ClassifyProviderStatus(ev.Status)

	if p.Status == entities.PaymentStatusPending && p.EffectiveStatus(now) == entities.PaymentStatusExpired {
		return u.expireLate(ctx, p, ev, class, now)
	}

	switch {
	case class == ProviderStatusCompleted && p.Status == entities.PaymentStatusPaid:
		log.Printf("[payment][webhook] duplicate confirmation payment_id=%s", p.ID)
		return u.done(WebhookOutcomeDuplicate, p.ID), nil
	case class == ProviderStatusCompleted && p.Status == entities.PaymentStatusPending:
		return u.applyPaid(ctx, p, ev, now)
	case class == ProviderStatusFailed && p.Status == entities.PaymentStatusPending:
		return u.applyFailed(ctx, p, ev, now)
	}

	if class == ProviderStatusCompleted {
		log.Printf("[payment][webhook] WARNING completion for non-payable payment payment_id=%s status=%s", p.ID, p.Status)
	}
	return u.audit(ctx, p, ev, now)
}

func (u *WebhookUseCase) applyPaid(ctx context.Context, p entities.Payment, ev WebhookEvent, now time.Time) (WebhookResult, error) {
	c := interfaces.PaymentConfirmation{Payment: p.MarkPaid(now, ev.Raw)}

	if p.AppointmentID != "" {
		apt, changed, err := u.confirmer.Confirm(ctx, p.AppointmentID, now)
		if err != nil {
			log.Printf("[payment][webhook] appointment confirmation failed payment_id=%s appointment_id=%s err=%v", p.ID, p.AppointmentID, err)
			return WebhookResult{}, err
		}
		if changed {
			c.Appointment = &apt
		}
	}

	if p.SubscriptionID != "" {
		sub, changed, err := u.activator.Activate(ctx, p.SubscriptionID, now)
		if err != nil {
			log.Printf("[payment][webhook] subscription activation failed payment_id=%s subscription_id=%s err=%v", p.ID, p.SubscriptionID, err)
			return WebhookResult{}, err
		}
		if changed {
			c.Subscription = &sub
		}
	}

	if err := u.repo.CommitConfirmation(ctx, c); err != nil {
		if errors.Is(err, interfaces.ErrConditionalCheckFailed) {
			log.Printf("[payment][webhook] lost confirmation race payment_id=%s", p.ID)
			return u.done(WebhookOutcomeDuplicate, p.ID), nil
		}
		log.Printf("[payment][webhook] commit failed payment_id=%s err=%v", p.ID, err)
		return WebhookResult{}, err
	}
	log.Printf("[payment][webhook] payment confirmed payment_id=%s appointment_confirmed=%t subscription_activated=%t",
		p.ID, c.Appointment != nil, c.Subscription != nil)

	u.notify(c.Payment, now)
	return u.done(WebhookOutcomeAppliedPaid, p.ID), nil
}

func (u *WebhookUseCase) applyFailed(ctx context.Context, p entities.Payment, ev WebhookEvent, now time.Time) (WebhookResult, error) {
	err := u.repo.MarkFailed(ctx, p.ID, ev.Raw, now)
	if err == nil {
		log.Printf("[payment][webhook] payment failed payment_id=%s provider_status=%q", p.ID, ev.Status)
		return u.done(WebhookOutcomeAppliedFailed, p.ID), nil
	}
	if !errors.Is(err, interfaces.ErrConditionalCheckFailed) {
		log.Printf("[payment][webhook] mark failed error payment_id=%s err=%v", p.ID, err)
		return WebhookResult{}, err
	}
	log.Printf("[payment][webhook] payment left PENDING before failure applied payment_id=%s", p.ID)
	return u.audit(ctx, p, ev, now)
}

// expireLate handles a delivery for a PENDING payment already past
// expires_at. Status reads have reported it EXPIRED, so it is persisted as
// EXPIRED and the delivery is only audited; a late settlement is left for
// manual reconciliation.
func (u *WebhookUseCase) expireLate(ctx context.Context, p entities.Payment, ev WebhookEvent, class ProviderStatusClass, now time.Time) (WebhookResult, error) {
	err := u.repo.MarkExpired(ctx, p.ID, now)
	switch {
	case err == nil:
		u.metrics.AddPaymentsExpired(1)
		p.Status = entities.PaymentStatusExpired
	case errors.Is(err, interfaces.ErrConditionalCheckFailed):
		current, gerr := u.repo.GetByID(ctx, p.ID)
		if gerr != nil {
			log.Printf("[payment][webhook] reload after expire race failed payment_id=%s err=%v", p.ID, gerr)
			return WebhookResult{}, gerr
		}
		p = current
	default:
		log.Printf("[payment][webhook] mark expired failed payment_id=%s err=%v", p.ID, err)
		return WebhookResult{}, err
	}

	if class == ProviderStatusCompleted && p.Status == entities.PaymentStatusPaid {
		return u.done(WebhookOutcomeDuplicate, p.ID), nil
	}
	if class == ProviderStatusCompleted {
		log.Printf("[payment][webhook] WARNING reconciliation needed: completion after expires_at payment_id=%s provider_identifier=%s expires_at=%s",
			p.ID, p.ProviderIdentifier, p.ExpiresAt.Format(time.RFC3339))
	}
	return u.audit(ctx, p, ev, now)
}

// audit records the delivery without touching status.
func (u *WebhookUseCase) audit(ctx context.Context, p entities.Payment, ev WebhookEvent, now time.Time) (WebhookResult, error) {
	if err := u.repo.RecordWebhook(ctx, p.ID, ev.Raw, now); err != nil {
		log.Printf("[payment][webhook] audit write failed payment_id=%s err=%v", p.ID, err)
		return WebhookResult{}, err
	}
	log.Printf("[payment][webhook] audited payment_id=%s status=%s provider_status=%q", p.ID, p.Status, ev.Status)
	return u.done(WebhookOutcomeAudited, p.ID), nil
}

func (u *WebhookUseCase) notify(p entities.Payment, now time.Time) {
	if u.notifier == nil {
		return
	}
	ok := u.notifier.Enqueue(entities.Notification{
		Kind:           entities.NotificationPaymentConfirmed,
		PaymentID:      p.ID,
		PaymentType:    p.Type,
		AppointmentID:  p.AppointmentID,
		SubscriptionID: p.SubscriptionID,
		PayerDocument:  p.PayerDocument,
		Amount:         p.Amount,
		OccurredAt:     now,
	})
	if !ok {
		log.Printf("[payment][webhook] notification dropped payment_id=%s", p.ID)
	}
}

func (u *WebhookUseCase) done(outcome WebhookOutcome, paymentID string) WebhookResult {
	u.metrics.IncWebhookOutcome(string(outcome))
	return WebhookResult{Outcome: outcome, PaymentID: paymentID}
}
