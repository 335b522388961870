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

// IAppointmentConfirmer computes the PENDING_PAYMENT -> CONFIRMED transition.
//
// Confirm does not write. It returns the confirmed appointment and true when a
// transition applies, or the unchanged appointment and false when the
// appointment is already past PENDING_PAYMENT. The caller commits the result
// together with the payment.
type IAppointmentConfirmer interface {
	Confirm(ctx context.Context, appointmentID string, now time.Time) (entities.Appointment, bool, error)
}

type AppointmentConfirmer struct {
	repo interfaces.IAppointmentRepository
}

var _ IAppointmentConfirmer = (*AppointmentConfirmer)(nil)

func NewAppointmentConfirmer(repo interfaces.IAppointmentRepository) *AppointmentConfirmer {
	return &AppointmentConfirmer{repo: repo}
}

func (c *AppointmentConfirmer) Confirm(ctx context.Context, appointmentID string, now time.Time) (entities.Appointment, bool, error) {
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return entities.Appointment{}, false, ErrAppointmentNotFound
	}

	apt, err := c.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return entities.Appointment{}, false, fmt.Errorf("load appointment %s: %w", appointmentID, err)
	}
	if apt.ID == "" {
		return entities.Appointment{}, false, ErrAppointmentNotFound
	}
	if apt.Status != entities.AppointmentStatusPendingPayment {
		log.Printf("[payment][appointment] no-op appointment_id=%s status=%s", apt.ID, apt.Status)
		return apt, false, nil
	}

	return apt.Confirm(now.UTC()), true, nil
}
