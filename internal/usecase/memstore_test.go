package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
)

// memStore emulates the DynamoDB conditions the repositories rely on: every
// status write is checked and applied under one lock, the way a single
// TransactWriteItems call is all-or-nothing.
type memStore struct {
	mu           sync.Mutex
	payments     map[string]entities.Payment
	appointments map[string]entities.Appointment
	subs         map[string]entities.Subscription
	plans        map[string]entities.Plan

	beforeCommit func()
	commitErr    error
	commits      int
	audits       int
}

func newMemStore() *memStore {
	return &memStore{
		payments:     map[string]entities.Payment{},
		appointments: map[string]entities.Appointment{},
		subs:         map[string]entities.Subscription{},
		plans:        map[string]entities.Plan{},
	}
}

func (s *memStore) payment(id string) entities.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[id]
}

func (s *memStore) appointment(id string) entities.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appointments[id]
}

func (s *memStore) subscription(id string) entities.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[id]
}

type memPayments struct{ s *memStore }

var _ interfaces.IPaymentRepository = memPayments{}

func (r memPayments) Create(_ context.Context, p entities.Payment, sub *entities.Subscription) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.ProviderIdentifier == p.ProviderIdentifier {
			return entities.Payment{}, interfaces.ErrDuplicateProviderIdentifier
		}
	}
	r.s.payments[p.ID] = p
	if sub != nil {
		r.s.subs[sub.ID] = *sub
	}
	return p, nil
}

func (r memPayments) GetByID(_ context.Context, id string) (entities.Payment, error) {
	return r.s.payment(id), nil
}

func (r memPayments) GetByProviderIdentifier(_ context.Context, providerIdentifier string) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ProviderIdentifier == providerIdentifier {
			return p, nil
		}
	}
	return entities.Payment{}, nil
}

func (r memPayments) CommitConfirmation(_ context.Context, c interfaces.PaymentConfirmation) error {
	if r.s.beforeCommit != nil {
		r.s.beforeCommit()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.commitErr != nil {
		return r.s.commitErr
	}
	if r.s.payments[c.Payment.ID].Status != entities.PaymentStatusPending {
		return interfaces.ErrConditionalCheckFailed
	}
	if c.Appointment != nil && r.s.appointments[c.Appointment.ID].Status != entities.AppointmentStatusPendingPayment {
		return interfaces.ErrConcurrentUpdate
	}
	if c.Subscription != nil && r.s.subs[c.Subscription.ID].Status != entities.SubscriptionStatusPending {
		return interfaces.ErrConcurrentUpdate
	}
	r.s.payments[c.Payment.ID] = c.Payment
	if c.Appointment != nil {
		r.s.appointments[c.Appointment.ID] = *c.Appointment
	}
	if c.Subscription != nil {
		r.s.subs[c.Subscription.ID] = *c.Subscription
	}
	r.s.commits++
	return nil
}

func (r memPayments) MarkFailed(_ context.Context, id string, payload json.RawMessage, now time.Time) error {
	return r.transition(id, entities.PaymentStatusFailed, payload, now)
}

func (r memPayments) MarkExpired(_ context.Context, id string, now time.Time) error {
	return r.transition(id, entities.PaymentStatusExpired, nil, now)
}

func (r memPayments) transition(id string, to entities.PaymentStatus, payload json.RawMessage, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok || p.Status != entities.PaymentStatusPending {
		return interfaces.ErrConditionalCheckFailed
	}
	p.Status = to
	if payload != nil {
		p.WebhookReceived = true
		p.LastWebhookPayload = payload
	}
	p.UpdatedAt = now
	r.s.payments[id] = p
	return nil
}

func (r memPayments) RecordWebhook(_ context.Context, id string, payload json.RawMessage, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.payments[id]
	p.WebhookReceived = true
	p.LastWebhookPayload = payload
	p.UpdatedAt = now
	r.s.payments[id] = p
	r.s.audits++
	return nil
}

func (r memPayments) ListExpiredPending(_ context.Context, now time.Time, limit int32) ([]entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Payment
	for _, p := range r.s.payments {
		if p.Status == entities.PaymentStatusPending && p.ExpiresAt.Before(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memAppointments struct{ s *memStore }

var _ interfaces.IAppointmentRepository = memAppointments{}

func (r memAppointments) GetByID(_ context.Context, id string) (entities.Appointment, error) {
	return r.s.appointment(id), nil
}

func (r memAppointments) MarkNotificationSent(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.appointments[id]
	a.NotificationSent = true
	r.s.appointments[id] = a
	return nil
}

type memSubscriptions struct{ s *memStore }

var _ interfaces.ISubscriptionRepository = memSubscriptions{}

func (r memSubscriptions) GetByID(_ context.Context, id string) (entities.Subscription, error) {
	return r.s.subscription(id), nil
}

type memPlans struct{ s *memStore }

var _ interfaces.IPlanRepository = memPlans{}

func (r memPlans) GetByID(_ context.Context, id string) (entities.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.plans[id], nil
}

func (r memPlans) ListActive(_ context.Context) ([]entities.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Plan
	for _, p := range r.s.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entities.Notification
	full bool
}

func (n *recordingNotifier) Enqueue(x entities.Notification) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.full {
		return false
	}
	n.sent = append(n.sent, x)
	return true
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
