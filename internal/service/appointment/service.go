package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository"
	"github.com/jwalitptl/bookmed-api/internal/service/event"
	apperrors "github.com/jwalitptl/bookmed-api/pkg/errors"
	"github.com/jwalitptl/bookmed-api/pkg/logger"
)

type Service struct {
	repo     repository.AppointmentRepository
	userRepo repository.UserRepository
	events   event.Emitter
	logger   *logger.Logger
}

func NewService(repo repository.AppointmentRepository, userRepo repository.UserRepository, events event.Emitter, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		events:   events,
		logger:   logger,
	}
}

// minBookingTime returns the earliest bookable instant: midnight at the
// start of tomorrow. Same-day bookings are always rejected.
func minBookingTime(now time.Time) time.Time {
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
}

// CreateAppointment validates and books a new appointment. Validation is
// fail-fast: the first failing check determines the error.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req.DoctorID == "" || req.Date == nil {
		return nil, apperrors.Validation("doctor ID and date are required")
	}

	if req.PatientID == "" {
		return nil, apperrors.Validation("patient ID is required")
	}

	if req.Date.Before(minBookingTime(time.Now())) {
		return nil, apperrors.Validation("appointment date must be tomorrow or later")
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.NotFound("invalid doctor")
	}
	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil || doctor.Role != model.RoleDoctor {
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("failed to resolve doctor: %w", err)
		}
		return nil, apperrors.NotFound("invalid doctor")
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.NotFound("invalid patient")
	}
	patient, err := s.userRepo.Get(ctx, patientID)
	if err != nil || patient.Role != model.RolePatient {
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("failed to resolve patient: %w", err)
		}
		return nil, apperrors.NotFound("invalid patient")
	}

	taken, err := s.repo.HasActiveAtSlot(ctx, doctorID, *req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return nil, apperrors.Conflict("this time slot is already booked")
	}

	apt := &model.Appointment{
		DoctorID:    doctorID,
		PatientID:   patientID,
		ScheduledAt: *req.Date,
		Status:      model.AppointmentStatusPending,
		Notes:       req.Notes,
		CreatedBy:   patientID,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		// The storage-level unique constraint catches bookings that
		// raced past the check above.
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.Conflict("this time slot is already booked")
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	apt.Doctor = doctor.Summary()
	apt.Patient = patient.Summary()

	s.emit(ctx, model.EventAppointmentCreated, apt)
	return apt, nil
}

// GetAppointment fetches one appointment with both users expanded.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("appointment not found")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

// UpdateStatus overwrites status and/or notes on an appointment under the
// transition policy: the owning doctor may complete or cancel, the owning
// patient may only cancel. Notes-only updates are allowed for either
// participant. Terminal appointments never transition again; a request
// that re-asserts the current status is policed like any other
// transition, so re-cancelling a cancelled appointment conflicts.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, actor *model.TokenClaims, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.Validation("invalid status")
		}
		if err := s.authorizeTransition(apt, actor, *req.Status); err != nil {
			return nil, err
		}
		apt.Status = *req.Status
	}

	if req.Notes != nil {
		if err := s.authorizeParticipant(apt, actor); err != nil {
			return nil, err
		}
		apt.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("appointment not found")
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	// A notes edit on a cancelled appointment is an update, not a second
	// cancellation.
	eventType := model.EventAppointmentUpdated
	if req.Status != nil && apt.Status == model.AppointmentStatusCancelled {
		eventType = model.EventAppointmentCancelled
	}
	s.emit(ctx, eventType, apt)

	return apt, nil
}

// CancelAppointment is the soft delete: a transition to CANCELLED. The
// record is kept and the slot becomes bookable again.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, actor *model.TokenClaims) (*model.Appointment, error) {
	cancelled := model.AppointmentStatusCancelled
	return s.UpdateStatus(ctx, id, actor, &model.UpdateAppointmentRequest{Status: &cancelled})
}

// ListForDoctor returns a page of a doctor's appointments, patient
// expanded, most recent first.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil || doctor.Role != model.RoleDoctor {
		if err != nil && !isNotFound(err) {
			return nil, 0, fmt.Errorf("failed to resolve doctor: %w", err)
		}
		return nil, 0, apperrors.NotFound("doctor not found")
	}

	filters.DoctorID = doctorID
	return s.list(ctx, filters)
}

// ListForPatient is symmetric to ListForDoctor, doctor expanded.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	patient, err := s.userRepo.Get(ctx, patientID)
	if err != nil || patient.Role != model.RolePatient {
		if err != nil && !isNotFound(err) {
			return nil, 0, fmt.Errorf("failed to resolve patient: %w", err)
		}
		return nil, 0, apperrors.NotFound("patient not found")
	}

	filters.PatientID = patientID
	return s.list(ctx, filters)
}

// ListAppointments returns a page across all appointments, optionally
// narrowed to a doctor, a patient, a status, or a calendar day.
func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	return s.list(ctx, filters)
}

func (s *Service) list(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, apperrors.Validation("invalid status")
	}
	filters.Normalize()

	appointments, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

func (s *Service) authorizeTransition(apt *model.Appointment, actor *model.TokenClaims, target model.AppointmentStatus) error {
	if apt.Status.Terminal() {
		return apperrors.Conflict(fmt.Sprintf("appointment is already %s", apt.Status))
	}

	switch target {
	case model.AppointmentStatusCompleted:
		if actor == nil {
			return apperrors.Unauthorized("authentication required")
		}
		if actor.UserID != apt.DoctorID {
			return apperrors.Forbidden("only the appointment's doctor may complete it")
		}
	case model.AppointmentStatusCancelled:
		if actor == nil {
			return apperrors.Unauthorized("authentication required")
		}
		if actor.UserID != apt.DoctorID && actor.UserID != apt.PatientID {
			return apperrors.Forbidden("only the appointment's doctor or patient may cancel it")
		}
	default:
		// PENDING and CONFIRMED are defined states but nothing
		// transitions into them, not even a re-assertion of the
		// current one.
		return apperrors.Validation("unsupported status transition")
	}
	return nil
}

func (s *Service) authorizeParticipant(apt *model.Appointment, actor *model.TokenClaims) error {
	if actor == nil {
		return apperrors.Unauthorized("authentication required")
	}
	if actor.UserID != apt.DoctorID && actor.UserID != apt.PatientID {
		return apperrors.Forbidden("not a participant of this appointment")
	}
	return nil
}

// emit records a lifecycle event; failures are logged, never surfaced to
// the caller.
func (s *Service) emit(ctx context.Context, eventType string, apt *model.Appointment) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, eventType, apt); err != nil {
		s.logger.Error(err, "failed to emit appointment event",
			"event_type", eventType,
			"appointment_id", apt.ID.String())
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
