package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
)

// UnknownDurationPolicy decides what happens when a plan carries a duration
// class this service does not map.
type UnknownDurationPolicy string

const (
	// UnknownDurationReject fails the activation; the confirmation is not
	// committed and the provider retries until the plan is fixed.
	UnknownDurationReject UnknownDurationPolicy = "reject"
	// UnknownDurationMonthly falls back to one month.
	UnknownDurationMonthly UnknownDurationPolicy = "monthly"
)

// ISubscriptionActivator computes the PENDING -> ACTIVE transition. Like
// IAppointmentConfirmer it does not write.
type ISubscriptionActivator interface {
	Activate(ctx context.Context, subscriptionID string, now time.Time) (entities.Subscription, bool, error)
}

type SubscriptionActivator struct {
	repo     interfaces.ISubscriptionRepository
	planRepo interfaces.IPlanRepository
	policy   UnknownDurationPolicy
}

var _ ISubscriptionActivator = (*SubscriptionActivator)(nil)

func NewSubscriptionActivator(repo interfaces.ISubscriptionRepository, planRepo interfaces.IPlanRepository, policy UnknownDurationPolicy) *SubscriptionActivator {
	if policy != UnknownDurationMonthly {
		policy = UnknownDurationReject
	}
	return &SubscriptionActivator{repo: repo, planRepo: planRepo, policy: policy}
}

func (a *SubscriptionActivator) Activate(ctx context.Context, subscriptionID string, now time.Time) (entities.Subscription, bool, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return entities.Subscription{}, false, ErrSubscriptionNotFound
	}

	sub, err := a.repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return entities.Subscription{}, false, fmt.Errorf("load subscription %s: %w", subscriptionID, err)
	}
	if sub.ID == "" {
		return entities.Subscription{}, false, ErrSubscriptionNotFound
	}
	if sub.Status != entities.SubscriptionStatusPending {
		log.Printf("[payment][subscription] no-op subscription_id=%s status=%s", sub.ID, sub.Status)
		return sub, false, nil
	}

	plan, err := a.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		return entities.Subscription{}, false, fmt.Errorf("load plan %s: %w", sub.PlanID, err)
	}
	if plan.ID == "" {
		return entities.Subscription{}, false, fmt.Errorf("subscription %s: %w", sub.ID, ErrPlanNotFound)
	}

	months, ok := plan.Duration.Months()
	if !ok {
		if a.policy != UnknownDurationMonthly {
			log.Printf("[payment][subscription] unknown plan duration subscription_id=%s plan_id=%s duration=%q", sub.ID, plan.ID, plan.Duration)
			return entities.Subscription{}, false, fmt.Errorf("plan %s duration %q: %w", plan.ID, plan.Duration, ErrUnknownPlanDuration)
		}
		log.Printf("[payment][subscription] WARNING unknown plan duration, falling back to 1 month subscription_id=%s plan_id=%s duration=%q", sub.ID, plan.ID, plan.Duration)
		months = 1
	}

	return sub.Activate(now.UTC(), months), true, nil
}
