package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus enumerates the appointment lifecycle states.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// Valid reports whether the status is one of the four defined values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Active reports whether the status occupies a slot. Cancelled and
// completed appointments free the slot and may never transition again.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// Terminal reports whether the status admits no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// Appointment represents one scheduled encounter between a patient and a
// doctor. Doctor and Patient are expansion fields populated on reads; the
// stored relationship is the pair of foreign keys.
type Appointment struct {
	Base
	DoctorID    uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	PatientID   uuid.UUID         `json:"patient_id" db:"patient_id"`
	ScheduledAt time.Time         `json:"date" db:"scheduled_at"`
	Status      AppointmentStatus `json:"status" db:"status"`
	Notes       string            `json:"notes" db:"notes"`
	CreatedBy   uuid.UUID         `json:"created_by" db:"created_by"`
	Doctor      *UserSummary      `json:"doctor,omitempty" db:"-"`
	Patient     *UserSummary      `json:"patient,omitempty" db:"-"`
}

// CreateAppointmentRequest represents booking parameters. PatientID is
// normally resolved from the caller's session; it stays explicit in the
// body for callers without one.
type CreateAppointmentRequest struct {
	DoctorID  string     `json:"doctorId"`
	PatientID string     `json:"patientId"`
	Date      *time.Time `json:"date"`
	Notes     string     `json:"notes"`
}

// UpdateAppointmentRequest represents status/notes update parameters.
// Nil fields are left untouched; an explicit empty notes string clears
// the notes.
type UpdateAppointmentRequest struct {
	Status *AppointmentStatus `json:"status" binding:"omitempty,apptstatus"`
	Notes  *string            `json:"notes"`
}

// AppointmentFilters narrows appointment listings. Date, when set,
// matches the whole calendar day in the server's timezone.
type AppointmentFilters struct {
	PageRequest
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	Date      *time.Time
}
