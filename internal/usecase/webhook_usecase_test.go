package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
	mock_interfaces "associacao_pagamentos/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

const testWebhookSecret = "whsec-test"

var (
	t0         = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	validAuth  = "Bearer " + testWebhookSecret
	testCPF    = "52998224725"
	testAmount = decimal.RequireFromString("150.00")
)

type webhookFixture struct {
	store    *memStore
	notifier *recordingNotifier
	uc       *WebhookUseCase
	clock    time.Time
}

func newWebhookFixture(policy UnknownDurationPolicy) *webhookFixture {
	store := newMemStore()
	n := &recordingNotifier{}
	f := &webhookFixture{store: store, notifier: n, clock: t0.Add(5 * time.Minute)}
	f.uc = NewWebhookUseCase(
		NewWebhookAuthenticator(testWebhookSecret),
		memPayments{store},
		NewAppointmentConfirmer(memAppointments{store}),
		NewSubscriptionActivator(memSubscriptions{store}, memPlans{store}, policy),
		n,
		nil,
	)
	f.uc.now = func() time.Time { return f.clock }
	return f
}

func (f *webhookFixture) seedConsultation(providerID string) entities.Payment {
	apt := entities.Appointment{ID: "apt-" + providerID, PatientID: "pat-1", Status: entities.AppointmentStatusPendingPayment, ScheduledAt: t0.Add(48 * time.Hour)}
	p := entities.Payment{
		ID:                 "pay-" + providerID,
		ProviderIdentifier: providerID,
		Type:               entities.PaymentTypeConsultation,
		Amount:             testAmount,
		Status:             entities.PaymentStatusPending,
		PixCode:            "000201...",
		PayerDocument:      testCPF,
		AppointmentID:      apt.ID,
		ExpiresAt:          t0.Add(entities.DefaultPaymentExpiration),
		CreatedAt:          t0,
		UpdatedAt:          t0,
	}
	f.store.appointments[apt.ID] = apt
	f.store.payments[p.ID] = p
	return p
}

func (f *webhookFixture) seedMonthly(providerID string, duration entities.PlanDuration) entities.Payment {
	plan := entities.Plan{ID: "plan-" + providerID, Name: "Plano", Duration: duration, Price: testAmount, Active: true}
	sub := entities.Subscription{ID: "sub-" + providerID, PlanID: plan.ID, PayerDocument: testCPF, Status: entities.SubscriptionStatusPending, CreatedAt: t0}
	p := entities.Payment{
		ID:                 "pay-" + providerID,
		ProviderIdentifier: providerID,
		Type:               entities.PaymentTypeMonthlyDue,
		Amount:             testAmount,
		Status:             entities.PaymentStatusPending,
		PixCode:            "000201...",
		PayerDocument:      testCPF,
		PlanID:             plan.ID,
		SubscriptionID:     sub.ID,
		ExpiresAt:          t0.Add(entities.DefaultPaymentExpiration),
		CreatedAt:          t0,
		UpdatedAt:          t0,
	}
	f.store.plans[plan.ID] = plan
	f.store.subs[sub.ID] = sub
	f.store.payments[p.ID] = p
	return p
}

func webhookBody(providerID, status string) []byte {
	return []byte(fmt.Sprintf(`{"type":"payment","data":{"id":%q,"status":%q}}`, providerID, status))
}

func TestClassifyProviderStatus(t *testing.T) {
	cases := map[string]ProviderStatusClass{
		"approved":     ProviderStatusCompleted,
		"COMPLETED":    ProviderStatusCompleted,
		" Paid ":       ProviderStatusCompleted,
		"accredited":   ProviderStatusCompleted,
		"confirmed":    ProviderStatusCompleted,
		"rejected":     ProviderStatusFailed,
		"Cancelled":    ProviderStatusFailed,
		"canceled":     ProviderStatusFailed,
		"charged_back": ProviderStatusFailed,
		"refunded":     ProviderStatusFailed,
		"expired":      ProviderStatusFailed,
		"failed":       ProviderStatusFailed,
		"pending":      ProviderStatusOther,
		"in_process":   ProviderStatusOther,
		"":             ProviderStatusOther,
	}
	for in, want := range cases {
		if got := ClassifyProviderStatus(in); got != want {
			t.Fatalf("ClassifyProviderStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseWebhookPayload(t *testing.T) {
	t.Run("string id", func(t *testing.T) {
		ev, err := ParseWebhookPayload([]byte(`{"data":{"id":"abc","status":"approved"},"extra":true}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.ProviderIdentifier != "abc" || ev.Status != "approved" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	})

	t.Run("numeric id", func(t *testing.T) {
		ev, err := ParseWebhookPayload([]byte(`{"data":{"id":1234567890123,"status":"approved"}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.ProviderIdentifier != "1234567890123" {
			t.Fatalf("expected numeric id kept verbatim, got %q", ev.ProviderIdentifier)
		}
	})

	t.Run("top-level status fallback", func(t *testing.T) {
		ev, err := ParseWebhookPayload([]byte(`{"status":"rejected","data":{"id":"abc"}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Status != "rejected" {
			t.Fatalf("expected top-level status, got %q", ev.Status)
		}
	})

	for name, body := range map[string]string{
		"empty":        ``,
		"not json":     `{`,
		"no data":      `{"status":"approved"}`,
		"null id":      `{"data":{"id":null}}`,
		"blank id":     `{"data":{"id":"  "}}`,
		"object id":    `{"data":{"id":{"x":1}}}`,
		"array root":   `[1,2]`,
		"boolean id":   `{"data":{"id":true}}`,
		"data as text": `{"data":"abc"}`,
	} {
		t.Run("invalid "+name, func(t *testing.T) {
			if _, err := ParseWebhookPayload([]byte(body)); !errors.Is(err, ErrInvalidWebhookPayload) {
				t.Fatalf("expected ErrInvalidWebhookPayload, got %v", err)
			}
		})
	}
}

func TestWebhookUseCase_Authentication(t *testing.T) {
	for _, auth := range []string{"", "Bearer", "Bearer wrong", "Basic " + testWebhookSecret, testWebhookSecret} {
		t.Run(fmt.Sprintf("header %q", auth), func(t *testing.T) {
			f := newWebhookFixture(UnknownDurationReject)
			p := f.seedConsultation("mp-1")

			_, err := f.uc.Process(context.Background(), auth, webhookBody("mp-1", "approved"))
			if !errors.Is(err, ErrWebhookUnauthorized) {
				t.Fatalf("expected ErrWebhookUnauthorized, got %v", err)
			}
			got := f.store.payment(p.ID)
			if got.Status != entities.PaymentStatusPending || got.WebhookReceived || got.LastWebhookPayload != nil {
				t.Fatalf("unauthenticated webhook mutated payment: %+v", got)
			}
			if f.store.appointment(p.AppointmentID).Status != entities.AppointmentStatusPendingPayment {
				t.Fatalf("unauthenticated webhook mutated appointment")
			}
			if f.notifier.count() != 0 {
				t.Fatalf("unexpected notification")
			}
		})
	}

	t.Run("empty configured secret fails closed", func(t *testing.T) {
		store := newMemStore()
		uc := NewWebhookUseCase(NewWebhookAuthenticator(""), memPayments{store}, nil, nil, nil, nil)
		_, err := uc.Process(context.Background(), "Bearer ", webhookBody("mp-1", "approved"))
		if !errors.Is(err, ErrWebhookUnauthorized) {
			t.Fatalf("expected ErrWebhookUnauthorized, got %v", err)
		}
	})
}

func TestWebhookUseCase_InvalidPayload(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	_, err := f.uc.Process(context.Background(), validAuth, []byte(`{"data":{}}`))
	if !errors.Is(err, ErrInvalidWebhookPayload) {
		t.Fatalf("expected ErrInvalidWebhookPayload, got %v", err)
	}
}

func TestWebhookUseCase_UnknownProviderIdentifier(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	f.seedConsultation("mp-1")

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-404", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeIgnoredUnknown {
		t.Fatalf("expected IGNORED_UNKNOWN, got %s", res.Outcome)
	}
	if f.store.audits != 0 || f.store.commits != 0 {
		t.Fatalf("unknown payment must not write")
	}
}

func TestWebhookUseCase_ConsultationPaid(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("mp-1")

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAppliedPaid || res.PaymentID != p.ID {
		t.Fatalf("unexpected result: %+v", res)
	}

	got := f.store.payment(p.ID)
	if got.Status != entities.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", got.Status)
	}
	if got.PaidAt == nil || !got.PaidAt.Equal(f.clock) {
		t.Fatalf("expected paid_at=%s, got %v", f.clock, got.PaidAt)
	}
	if !got.WebhookReceived || len(got.LastWebhookPayload) == 0 {
		t.Fatalf("expected webhook payload recorded")
	}

	apt := f.store.appointment(p.AppointmentID)
	if apt.Status != entities.AppointmentStatusConfirmed || apt.ConfirmedAt == nil {
		t.Fatalf("expected appointment CONFIRMED, got %+v", apt)
	}

	if f.notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", f.notifier.count())
	}
	n := f.notifier.sent[0]
	if n.Kind != entities.NotificationPaymentConfirmed || n.PaymentID != p.ID || n.AppointmentID != p.AppointmentID || !n.Amount.Equal(testAmount) {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestWebhookUseCase_MonthlyDueActivatesSubscription(t *testing.T) {
	cases := []struct {
		duration entities.PlanDuration
		months   int
	}{
		{entities.PlanDurationMonthly, 1},
		{entities.PlanDurationQuarterly, 3},
		{entities.PlanDurationSemiannual, 6},
		{entities.PlanDurationAnnual, 12},
	}
	for _, tc := range cases {
		t.Run(string(tc.duration), func(t *testing.T) {
			f := newWebhookFixture(UnknownDurationReject)
			p := f.seedMonthly("mp-"+string(tc.duration), tc.duration)

			res, err := f.uc.Process(context.Background(), validAuth, webhookBody(p.ProviderIdentifier, "approved"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != WebhookOutcomeAppliedPaid {
				t.Fatalf("expected APPLIED_PAID, got %s", res.Outcome)
			}

			sub := f.store.subscription(p.SubscriptionID)
			if sub.Status != entities.SubscriptionStatusActive {
				t.Fatalf("expected ACTIVE, got %s", sub.Status)
			}
			wantEnd := f.clock.AddDate(0, tc.months, 0)
			if sub.StartDate == nil || !sub.StartDate.Equal(f.clock) {
				t.Fatalf("expected start %s, got %v", f.clock, sub.StartDate)
			}
			if sub.EndDate == nil || !sub.EndDate.Equal(wantEnd) {
				t.Fatalf("expected end %s, got %v", wantEnd, sub.EndDate)
			}
			if sub.NextBillingDate == nil || !sub.NextBillingDate.Equal(wantEnd) {
				t.Fatalf("expected next billing %s, got %v", wantEnd, sub.NextBillingDate)
			}
		})
	}
}

func TestWebhookUseCase_Idempotent(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedMonthly("mp-1", entities.PlanDurationAnnual)

	var outcomes []WebhookOutcome
	for i := 0; i < 5; i++ {
		res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i, err)
		}
		outcomes = append(outcomes, res.Outcome)
		f.clock = f.clock.Add(time.Minute)
	}

	if outcomes[0] != WebhookOutcomeAppliedPaid {
		t.Fatalf("first delivery should apply, got %s", outcomes[0])
	}
	for i, o := range outcomes[1:] {
		if o != WebhookOutcomeDuplicate {
			t.Fatalf("delivery %d should be DUPLICATE, got %s", i+1, o)
		}
	}
	if f.store.commits != 1 {
		t.Fatalf("expected exactly 1 commit, got %d", f.store.commits)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", f.notifier.count())
	}

	got := f.store.payment(p.ID)
	if !got.PaidAt.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("paid_at must not move on duplicates, got %s", got.PaidAt)
	}
	sub := f.store.subscription(p.SubscriptionID)
	if !sub.StartDate.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("subscription must not be re-activated, got start %s", sub.StartDate)
	}
}

func TestWebhookUseCase_ConcurrentDuplicates(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("mp-1")

	// both deliveries read PENDING before either commits
	var arrived sync.WaitGroup
	arrived.Add(2)
	f.store.beforeCommit = func() {
		arrived.Done()
		arrived.Wait()
	}

	var wg sync.WaitGroup
	results := make([]WebhookResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		}(i)
	}
	wg.Wait()

	applied, duplicate := 0, 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i, errs[i])
		}
		switch results[i].Outcome {
		case WebhookOutcomeAppliedPaid:
			applied++
		case WebhookOutcomeDuplicate:
			duplicate++
		}
	}
	if applied != 1 || duplicate != 1 {
		t.Fatalf("expected one APPLIED_PAID and one DUPLICATE, got applied=%d duplicate=%d", applied, duplicate)
	}
	if f.store.commits != 1 || f.notifier.count() != 1 {
		t.Fatalf("expected a single commit and notification, got commits=%d notifications=%d", f.store.commits, f.notifier.count())
	}
	if f.store.payment(p.ID).Status != entities.PaymentStatusPaid {
		t.Fatalf("expected PAID")
	}
}

func TestWebhookUseCase_NoDowngrade(t *testing.T) {
	for _, status := range []string{"rejected", "refunded", "cancelled", "charged_back", "pending"} {
		t.Run(status, func(t *testing.T) {
			f := newWebhookFixture(UnknownDurationReject)
			p := f.seedConsultation("mp-1")
			if _, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", status))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != WebhookOutcomeAudited {
				t.Fatalf("expected AUDITED, got %s", res.Outcome)
			}
			got := f.store.payment(p.ID)
			if got.Status != entities.PaymentStatusPaid {
				t.Fatalf("PAID was downgraded to %s", got.Status)
			}
			if string(got.LastWebhookPayload) != string(webhookBody("mp-1", status)) {
				t.Fatalf("expected latest payload audited, got %s", got.LastWebhookPayload)
			}
		})
	}
}

func TestWebhookUseCase_Failed(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("mp-1")

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "rejected"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAppliedFailed {
		t.Fatalf("expected APPLIED_FAILED, got %s", res.Outcome)
	}
	if got := f.store.payment(p.ID); got.Status != entities.PaymentStatusFailed || !got.WebhookReceived {
		t.Fatalf("expected FAILED with webhook recorded, got %+v", got)
	}

	// a late approval for a failed charge is audit-only
	res, err = f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAudited {
		t.Fatalf("expected AUDITED, got %s", res.Outcome)
	}
	if f.store.payment(p.ID).Status != entities.PaymentStatusFailed {
		t.Fatalf("FAILED must stay terminal")
	}
	if f.store.appointment(p.AppointmentID).Status != entities.AppointmentStatusPendingPayment {
		t.Fatalf("appointment must not be confirmed by a failed payment")
	}
	if f.notifier.count() != 0 {
		t.Fatalf("unexpected notification")
	}
}

func TestWebhookUseCase_PendingStatusIsAudited(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("mp-1")

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "in_process"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAudited {
		t.Fatalf("expected AUDITED, got %s", res.Outcome)
	}
	got := f.store.payment(p.ID)
	if got.Status != entities.PaymentStatusPending || !got.WebhookReceived {
		t.Fatalf("expected PENDING with webhook recorded, got %+v", got)
	}
}

func TestWebhookUseCase_NumericProviderID(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("987654321")

	res, err := f.uc.Process(context.Background(), validAuth, []byte(`{"action":"payment.updated","data":{"id":987654321,"status":"approved"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAppliedPaid || res.PaymentID != p.ID {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWebhookUseCase_CompletionAfterExpiresAt(t *testing.T) {
	for _, status := range []string{"approved", "rejected", "in_process"} {
		t.Run(status, func(t *testing.T) {
			f := newWebhookFixture(UnknownDurationReject)
			p := f.seedConsultation("mp-1")
			f.clock = t0.Add(31 * time.Minute)

			if got := f.store.payment(p.ID).EffectiveStatus(f.clock); got != entities.PaymentStatusExpired {
				t.Fatalf("expected EXPIRED before the webhook, got %s", got)
			}

			res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", status))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != WebhookOutcomeAudited {
				t.Fatalf("expected AUDITED, got %s", res.Outcome)
			}
			got := f.store.payment(p.ID)
			if got.Status != entities.PaymentStatusExpired || !got.WebhookReceived || got.PaidAt != nil {
				t.Fatalf("expected persisted EXPIRED with audited payload, got %+v", got)
			}
			if apt := f.store.appointment(p.AppointmentID); apt.Status != entities.AppointmentStatusPendingPayment {
				t.Fatalf("appointment must not be confirmed, got %s", apt.Status)
			}
			if f.notifier.count() != 0 {
				t.Fatalf("no notification expected")
			}
		})
	}
}

func TestWebhookUseCase_CompletionAfterExpiresAtMatchesSweep(t *testing.T) {
	late := t0.Add(31 * time.Minute)

	swept := newWebhookFixture(UnknownDurationReject)
	ps := swept.seedConsultation("mp-1")
	swept.clock = late
	sweeper := NewExpirationSweeper(memPayments{swept.store}, nil, time.Minute, 10)
	sweeper.now = func() time.Time { return late }
	if n, err := sweeper.SweepOnce(context.Background()); err != nil || n != 1 {
		t.Fatalf("expected one payment swept, got %d err=%v", n, err)
	}

	unswept := newWebhookFixture(UnknownDurationReject)
	pu := unswept.seedConsultation("mp-1")
	unswept.clock = late

	resSwept, err := swept.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resUnswept, err := unswept.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resSwept.Outcome != resUnswept.Outcome {
		t.Fatalf("outcome depends on the sweep: swept=%s unswept=%s", resSwept.Outcome, resUnswept.Outcome)
	}
	if a, b := swept.store.payment(ps.ID).Status, unswept.store.payment(pu.ID).Status; a != b || a != entities.PaymentStatusExpired {
		t.Fatalf("expected EXPIRED in both, got swept=%s unswept=%s", a, b)
	}
}

func TestWebhookUseCase_LateCompletionLosesToConfirmation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewWebhookUseCase(NewWebhookAuthenticator(testWebhookSecret), repo, nil, nil, nil, nil)
	late := t0.Add(31 * time.Minute)
	uc.now = func() time.Time { return late }

	pending := entities.Payment{ID: "pay-1", ProviderIdentifier: "mp-1", Status: entities.PaymentStatusPending, ExpiresAt: t0.Add(30 * time.Minute)}
	paid := pending
	paid.Status = entities.PaymentStatusPaid

	gomock.InOrder(
		repo.EXPECT().GetByProviderIdentifier(gomock.Any(), "mp-1").Return(pending, nil),
		repo.EXPECT().MarkExpired(gomock.Any(), "pay-1", late).Return(interfaces.ErrConditionalCheckFailed),
		repo.EXPECT().GetByID(gomock.Any(), "pay-1").Return(paid, nil),
	)

	res, err := uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeDuplicate {
		t.Fatalf("expected DUPLICATE, got %s", res.Outcome)
	}
}

func TestWebhookUseCase_ExpiredPaymentIsAuditOnly(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("mp-1")
	expired := p
	expired.Status = entities.PaymentStatusExpired
	f.store.payments[p.ID] = expired

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAudited {
		t.Fatalf("expected AUDITED, got %s", res.Outcome)
	}
	if f.store.payment(p.ID).Status != entities.PaymentStatusExpired {
		t.Fatalf("EXPIRED must stay terminal")
	}
}

func TestWebhookUseCase_AppointmentAlreadyConfirmed(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	p := f.seedConsultation("mp-1")
	confirmedAt := t0.Add(-time.Hour)
	f.store.appointments[p.AppointmentID] = entities.Appointment{ID: p.AppointmentID, Status: entities.AppointmentStatusConfirmed, ConfirmedAt: &confirmedAt}

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != WebhookOutcomeAppliedPaid {
		t.Fatalf("expected APPLIED_PAID, got %s", res.Outcome)
	}
	apt := f.store.appointment(p.AppointmentID)
	if !apt.ConfirmedAt.Equal(confirmedAt) {
		t.Fatalf("confirmed appointment must not be touched, got %s", apt.ConfirmedAt)
	}
}

func TestWebhookUseCase_Atomicity(t *testing.T) {
	t.Run("unknown plan duration rejects the whole confirmation", func(t *testing.T) {
		f := newWebhookFixture(UnknownDurationReject)
		p := f.seedMonthly("mp-1", entities.PlanDuration("BIENNIAL"))

		_, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if !errors.Is(err, ErrUnknownPlanDuration) {
			t.Fatalf("expected ErrUnknownPlanDuration, got %v", err)
		}
		if f.store.payment(p.ID).Status != entities.PaymentStatusPending {
			t.Fatalf("payment must stay PENDING")
		}
		if f.store.subscription(p.SubscriptionID).Status != entities.SubscriptionStatusPending {
			t.Fatalf("subscription must stay PENDING")
		}
		if f.notifier.count() != 0 {
			t.Fatalf("unexpected notification")
		}
	})

	t.Run("monthly fallback policy activates for one month", func(t *testing.T) {
		f := newWebhookFixture(UnknownDurationMonthly)
		p := f.seedMonthly("mp-1", entities.PlanDuration("BIENNIAL"))

		res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if err != nil || res.Outcome != WebhookOutcomeAppliedPaid {
			t.Fatalf("expected APPLIED_PAID, got %+v err=%v", res, err)
		}
		sub := f.store.subscription(p.SubscriptionID)
		if !sub.EndDate.Equal(f.clock.AddDate(0, 1, 0)) {
			t.Fatalf("expected one month, got end %s", sub.EndDate)
		}
	})

	t.Run("missing appointment leaves payment pending", func(t *testing.T) {
		f := newWebhookFixture(UnknownDurationReject)
		p := f.seedConsultation("mp-1")
		delete(f.store.appointments, p.AppointmentID)

		_, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if !errors.Is(err, ErrAppointmentNotFound) {
			t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
		}
		if f.store.payment(p.ID).Status != entities.PaymentStatusPending {
			t.Fatalf("payment must stay PENDING")
		}
	})

	t.Run("storage failure is retryable", func(t *testing.T) {
		f := newWebhookFixture(UnknownDurationReject)
		p := f.seedConsultation("mp-1")
		f.store.commitErr = errors.New("throttled")

		_, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if err == nil {
			t.Fatalf("expected error")
		}
		if f.store.payment(p.ID).Status != entities.PaymentStatusPending {
			t.Fatalf("payment must stay PENDING")
		}
		if f.store.appointment(p.AppointmentID).Status != entities.AppointmentStatusPendingPayment {
			t.Fatalf("appointment must stay PENDING_PAYMENT")
		}

		f.store.commitErr = nil
		res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if err != nil || res.Outcome != WebhookOutcomeAppliedPaid {
			t.Fatalf("retry should apply, got %+v err=%v", res, err)
		}
	})

	t.Run("dependent entity changed concurrently", func(t *testing.T) {
		f := newWebhookFixture(UnknownDurationReject)
		p := f.seedConsultation("mp-1")
		f.store.beforeCommit = func() {
			f.store.mu.Lock()
			a := f.store.appointments[p.AppointmentID]
			a.Status = entities.AppointmentStatusCancelled
			f.store.appointments[p.AppointmentID] = a
			f.store.mu.Unlock()
		}

		_, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
		if !errors.Is(err, interfaces.ErrConcurrentUpdate) {
			t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
		}
		if f.store.payment(p.ID).Status != entities.PaymentStatusPending {
			t.Fatalf("payment must stay PENDING")
		}
	})
}

func TestWebhookUseCase_NotificationDropDoesNotFail(t *testing.T) {
	f := newWebhookFixture(UnknownDurationReject)
	f.notifier.full = true
	p := f.seedConsultation("mp-1")

	res, err := f.uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved"))
	if err != nil || res.Outcome != WebhookOutcomeAppliedPaid {
		t.Fatalf("expected APPLIED_PAID, got %+v err=%v", res, err)
	}
	if f.store.payment(p.ID).Status != entities.PaymentStatusPaid {
		t.Fatalf("expected PAID")
	}
}

func TestWebhookUseCase_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	metrics := mock_interfaces.NewMockIPaymentMetrics(ctrl)
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)

	uc := NewWebhookUseCase(NewWebhookAuthenticator(testWebhookSecret), repo, nil, nil, nil, metrics)

	paid := entities.Payment{ID: "pay-1", ProviderIdentifier: "mp-1", Status: entities.PaymentStatusPaid}
	gomock.InOrder(
		metrics.EXPECT().IncWebhookOutcome(webhookRejectedUnauthorized),
		repo.EXPECT().GetByProviderIdentifier(gomock.Any(), "mp-1").Return(paid, nil),
		metrics.EXPECT().IncWebhookOutcome(string(WebhookOutcomeDuplicate)),
		repo.EXPECT().GetByProviderIdentifier(gomock.Any(), "mp-2").Return(entities.Payment{}, nil),
		metrics.EXPECT().IncWebhookOutcome(string(WebhookOutcomeIgnoredUnknown)),
	)

	if _, err := uc.Process(context.Background(), "Bearer nope", webhookBody("mp-1", "approved")); !errors.Is(err, ErrWebhookUnauthorized) {
		t.Fatalf("expected ErrWebhookUnauthorized, got %v", err)
	}
	if res, err := uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved")); err != nil || res.Outcome != WebhookOutcomeDuplicate {
		t.Fatalf("expected DUPLICATE, got %+v err=%v", res, err)
	}
	if res, err := uc.Process(context.Background(), validAuth, webhookBody("mp-2", "approved")); err != nil || res.Outcome != WebhookOutcomeIgnoredUnknown {
		t.Fatalf("expected IGNORED_UNKNOWN, got %+v err=%v", res, err)
	}
}

func TestWebhookUseCase_LookupError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewWebhookUseCase(NewWebhookAuthenticator(testWebhookSecret), repo, nil, nil, nil, nil)

	repo.EXPECT().GetByProviderIdentifier(gomock.Any(), "mp-1").Return(entities.Payment{}, errors.New("db"))

	if _, err := uc.Process(context.Background(), validAuth, webhookBody("mp-1", "approved")); err == nil || err.Error() != "db" {
		t.Fatalf("expected db error, got %v", err)
	}
}
