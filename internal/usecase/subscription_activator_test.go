package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	mock_interfaces "associacao_pagamentos/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func TestSubscriptionActivator_Activate(t *testing.T) {
	now := time.Date(2026, 1, 31, 9, 30, 0, 0, time.UTC)
	pending := entities.Subscription{ID: "sub-1", PlanID: "plan-1", Status: entities.SubscriptionStatusPending}

	t.Run("annual plan ends twelve months later", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		subs := mock_interfaces.NewMockISubscriptionRepository(ctrl)
		plans := mock_interfaces.NewMockIPlanRepository(ctrl)
		a := NewSubscriptionActivator(subs, plans, "")

		subs.EXPECT().GetByID(gomock.Any(), "sub-1").Return(pending, nil)
		plans.EXPECT().GetByID(gomock.Any(), "plan-1").Return(entities.Plan{ID: "plan-1", Duration: entities.PlanDurationAnnual}, nil)

		got, changed, err := a.Activate(context.Background(), "sub-1", now)
		if err != nil || !changed {
			t.Fatalf("expected activation, changed=%t err=%v", changed, err)
		}
		want := time.Date(2027, 1, 31, 9, 30, 0, 0, time.UTC)
		if got.Status != entities.SubscriptionStatusActive || !got.StartDate.Equal(now) || !got.EndDate.Equal(want) || !got.NextBillingDate.Equal(want) {
			t.Fatalf("unexpected subscription: %+v", got)
		}
	})

	t.Run("not pending is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		subs := mock_interfaces.NewMockISubscriptionRepository(ctrl)
		plans := mock_interfaces.NewMockIPlanRepository(ctrl)
		a := NewSubscriptionActivator(subs, plans, UnknownDurationReject)

		active := pending
		active.Status = entities.SubscriptionStatusActive
		subs.EXPECT().GetByID(gomock.Any(), "sub-1").Return(active, nil)

		got, changed, err := a.Activate(context.Background(), "sub-1", now)
		if err != nil || changed || got.Status != entities.SubscriptionStatusActive {
			t.Fatalf("expected no-op, got %+v changed=%t err=%v", got, changed, err)
		}
	})

	t.Run("missing subscription", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		subs := mock_interfaces.NewMockISubscriptionRepository(ctrl)
		a := NewSubscriptionActivator(subs, nil, UnknownDurationReject)

		subs.EXPECT().GetByID(gomock.Any(), "sub-1").Return(entities.Subscription{}, nil)

		if _, _, err := a.Activate(context.Background(), "sub-1", now); !errors.Is(err, ErrSubscriptionNotFound) {
			t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
		}
	})

	t.Run("missing plan", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		subs := mock_interfaces.NewMockISubscriptionRepository(ctrl)
		plans := mock_interfaces.NewMockIPlanRepository(ctrl)
		a := NewSubscriptionActivator(subs, plans, UnknownDurationReject)

		subs.EXPECT().GetByID(gomock.Any(), "sub-1").Return(pending, nil)
		plans.EXPECT().GetByID(gomock.Any(), "plan-1").Return(entities.Plan{}, nil)

		if _, _, err := a.Activate(context.Background(), "sub-1", now); !errors.Is(err, ErrPlanNotFound) {
			t.Fatalf("expected ErrPlanNotFound, got %v", err)
		}
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		subs := mock_interfaces.NewMockISubscriptionRepository(ctrl)
		a := NewSubscriptionActivator(subs, nil, UnknownDurationReject)

		dbErr := errors.New("db")
		subs.EXPECT().GetByID(gomock.Any(), "sub-1").Return(entities.Subscription{}, dbErr)

		if _, _, err := a.Activate(context.Background(), "sub-1", now); !errors.Is(err, dbErr) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})

	t.Run("unknown duration", func(t *testing.T) {
		for _, tc := range []struct {
			policy  UnknownDurationPolicy
			wantErr bool
		}{
			{UnknownDurationReject, true},
			{"", true},
			{UnknownDurationMonthly, false},
		} {
			ctrl := gomock.NewController(t)
			subs := mock_interfaces.NewMockISubscriptionRepository(ctrl)
			plans := mock_interfaces.NewMockIPlanRepository(ctrl)
			a := NewSubscriptionActivator(subs, plans, tc.policy)

			subs.EXPECT().GetByID(gomock.Any(), "sub-1").Return(pending, nil)
			plans.EXPECT().GetByID(gomock.Any(), "plan-1").Return(entities.Plan{ID: "plan-1", Duration: "WEEKLY"}, nil)

			got, changed, err := a.Activate(context.Background(), "sub-1", now)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownPlanDuration) || changed {
					t.Fatalf("policy %q: expected ErrUnknownPlanDuration, got changed=%t err=%v", tc.policy, changed, err)
				}
			} else {
				if err != nil || !changed || !got.EndDate.Equal(now.AddDate(0, 1, 0)) {
					t.Fatalf("policy %q: expected one-month activation, got %+v err=%v", tc.policy, got, err)
				}
			}
			ctrl.Finish()
		}
	})
}
