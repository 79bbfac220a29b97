package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/bookmed-api/internal/model"
)

// Sentinel errors shared by all repository implementations.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrSlotTaken      = errors.New("slot already booked")
)

// All repository interfaces in one file
type (
	// UserRepository handles the user directory.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.User, error)
		ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.User, int, error)
	}

	// AppointmentRepository handles appointment persistence. Create must
	// fail with ErrSlotTaken when another active appointment holds the
	// same (doctor, scheduled_at) slot.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error)
		HasActiveAtSlot(ctx context.Context, doctorID uuid.UUID, scheduledAt time.Time) (bool, error)
	}

	// OutboxRepository stores appointment lifecycle events for async
	// delivery by the worker.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	}
)
