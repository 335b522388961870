package entities

import "time"

// AppointmentStatus represents the lifecycle of a telemedicine appointment.
//
// Domain notes:
//   - Appointments are created PENDING_PAYMENT by the scheduling flow.
//   - This service only performs PENDING_PAYMENT -> CONFIRMED, once, when the
//     consultation payment is confirmed.

type AppointmentStatus string

const (
	AppointmentStatusPendingPayment AppointmentStatus = "PENDING_PAYMENT"
	AppointmentStatusScheduled      AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed      AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress     AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted      AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled      AppointmentStatus = "CANCELLED"
)

// Appointment as seen by the payment core.
//
// Storage model (DynamoDB):
//   - PK: id

type Appointment struct {
	ID               string            `json:"id"`
	PatientID        string            `json:"patient_id"`
	Status           AppointmentStatus `json:"status"`
	ScheduledAt      time.Time         `json:"scheduled_at"`
	ConfirmedAt      *time.Time        `json:"confirmed_at,omitempty"`
	NotificationSent bool              `json:"notification_sent"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Confirm returns a copy of a confirmed at now.
func (a Appointment) Confirm(now time.Time) Appointment {
	confirmedAt := now
	a.Status = AppointmentStatusConfirmed
	a.ConfirmedAt = &confirmedAt
	a.UpdatedAt = now
	return a
}
