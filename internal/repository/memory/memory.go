// Package memory provides in-memory repository implementations. They back
// the service tests and honor the same invariants as the postgres
// implementations, including email and slot uniqueness.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*model.User)}
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByEmailAndRole(_ context.Context, email string, role model.Role) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email && u.Role == role {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) ListDoctors(_ context.Context, filters *model.DoctorFilters) ([]*model.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.User
	for _, u := range r.users {
		if u.Role != model.RoleDoctor {
			continue
		}
		if filters.Search != "" && !matchesSearch(u, filters.Search) {
			continue
		}
		if filters.Specialization != "" {
			if u.Specialization == nil || *u.Specialization != filters.Specialization {
				continue
			}
		}
		clone := *u
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return page(matched, &filters.PageRequest)
}

func matchesSearch(u *model.User, search string) bool {
	s := strings.ToLower(search)
	if strings.Contains(strings.ToLower(u.Name), s) {
		return true
	}
	return u.Specialization != nil && strings.Contains(strings.ToLower(*u.Specialization), s)
}

type AppointmentRepository struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	users        *UserRepository
}

// NewAppointmentRepository expands records against the given user
// repository the way the postgres implementation joins the users table.
func NewAppointmentRepository(users *UserRepository) *AppointmentRepository {
	return &AppointmentRepository{
		appointments: make(map[uuid.UUID]*model.Appointment),
		users:        users,
	}
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.DoctorID == appointment.DoctorID &&
			a.ScheduledAt.Equal(appointment.ScheduledAt) &&
			a.Status.Active() {
			return repository.ErrSlotTaken
		}
	}

	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	clone := *appointment
	clone.Doctor = nil
	clone.Patient = nil
	r.appointments[appointment.ID] = &clone
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.expand(ctx, apt), nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.appointments[appointment.ID]
	if !ok {
		return repository.ErrNotFound
	}

	stored.Status = appointment.Status
	stored.Notes = appointment.Notes
	stored.UpdatedAt = time.Now()
	appointment.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*model.Appointment
	for _, a := range r.appointments {
		if filters.DoctorID != uuid.Nil && a.DoctorID != filters.DoctorID {
			continue
		}
		if filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		if filters.Date != nil {
			d := filters.Date
			day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
			if a.ScheduledAt.Before(day) || !a.ScheduledAt.Before(day.Add(24*time.Hour)) {
				continue
			}
		}
		matched = append(matched, r.expand(ctx, a))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ScheduledAt.After(matched[j].ScheduledAt)
	})

	return page(matched, &filters.PageRequest)
}

func (r *AppointmentRepository) HasActiveAtSlot(_ context.Context, doctorID uuid.UUID, scheduledAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.ScheduledAt.Equal(scheduledAt) && a.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepository) expand(ctx context.Context, apt *model.Appointment) *model.Appointment {
	clone := *apt
	if doctor, err := r.users.Get(ctx, apt.DoctorID); err == nil {
		clone.Doctor = doctor.Summary()
	}
	if patient, err := r.users.Get(ctx, apt.PatientID); err == nil {
		clone.Patient = patient.Summary()
	}
	return &clone
}

type OutboxRepository struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *OutboxRepository) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*model.OutboxEvent
	for _, e := range r.events {
		if e.Status == string(model.OutboxStatusPending) {
			clone := *e
			pending = append(pending, &clone)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *OutboxRepository) MarkProcessed(_ context.Context, id uuid.UUID) error {
	return r.setStatus(id, model.OutboxStatusProcessed, nil)
}

func (r *OutboxRepository) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return r.setStatus(id, model.OutboxStatusFailed, &reason)
}

func (r *OutboxRepository) setStatus(id uuid.UUID, status model.OutboxStatus, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			e.Status = string(status)
			e.ErrorMessage = reason
			e.UpdatedAt = time.Now()
			if status == model.OutboxStatusProcessed {
				now := time.Now()
				e.ProcessedAt = &now
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

// Events returns every stored event, for test assertions.
func (r *OutboxRepository) Events() []*model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.OutboxEvent, len(r.events))
	for i, e := range r.events {
		clone := *e
		out[i] = &clone
	}
	return out
}

func page[T any](items []T, p *model.PageRequest) ([]T, int, error) {
	total := len(items)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}
