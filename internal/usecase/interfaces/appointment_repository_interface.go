package interfaces

import (
	"context"

	"associacao_pagamentos/internal/domain/entities"
)

// IAppointmentRepository reads appointments owned by the scheduling flow.
// Status writes happen only inside IPaymentRepository.CommitConfirmation;
// MarkNotificationSent is the dispatcher's acknowledgement.

type IAppointmentRepository interface {
	GetByID(ctx context.Context, id string) (entities.Appointment, error)
	MarkNotificationSent(ctx context.Context, id string) error
}
