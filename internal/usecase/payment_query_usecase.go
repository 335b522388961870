package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/google/uuid"
)

// IPaymentQueryUseCase serves checkout polling.
//
// Returned payments carry their effective status: a PENDING payment past
// expires_at is reported EXPIRED even if the sweep has not persisted it.
type IPaymentQueryUseCase interface {
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetStatus(ctx context.Context, id string) (entities.PaymentStatus, error)
}

type PaymentQueryUseCase struct {
	repo interfaces.IPaymentRepository
	now  func() time.Time
}

var _ IPaymentQueryUseCase = (*PaymentQueryUseCase)(nil)

func NewPaymentQueryUseCase(repo interfaces.IPaymentRepository) *PaymentQueryUseCase {
	return &PaymentQueryUseCase{repo: repo, now: time.Now}
}

func (u *PaymentQueryUseCase) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return entities.Payment{}, ErrInvalidPaymentID
	}

	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("[payment][query] get failed payment_id=%s err=%v", id, err)
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}

	p.Status = p.EffectiveStatus(u.now().UTC())
	return p, nil
}

func (u *PaymentQueryUseCase) GetStatus(ctx context.Context, id string) (entities.PaymentStatus, error) {
	p, err := u.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Status, nil
}
