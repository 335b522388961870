package interfaces

import (
	"context"

	"associacao_pagamentos/internal/domain/entities"
)

// ISubscriptionRepository reads subscriptions. They are created together with
// their payment and activated inside IPaymentRepository.CommitConfirmation.

type ISubscriptionRepository interface {
	GetByID(ctx context.Context, id string) (entities.Subscription, error)
}
