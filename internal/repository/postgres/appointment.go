package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository"
)

// appointmentRow joins an appointment to both referenced users so a single
// query returns the expanded record.
type appointmentRow struct {
	model.Appointment
	DoctorName     string  `db:"doctor_name"`
	DoctorEmail    string  `db:"doctor_email"`
	DoctorSpec     *string `db:"doctor_specialization"`
	DoctorPhoto    *string `db:"doctor_photo_url"`
	PatientName    string  `db:"patient_name"`
	PatientEmail   string  `db:"patient_email"`
	PatientPhoto   *string `db:"patient_photo_url"`
}

func (row *appointmentRow) toModel() *model.Appointment {
	apt := row.Appointment
	apt.Doctor = &model.UserSummary{
		ID:             apt.DoctorID.String(),
		Name:           row.DoctorName,
		Email:          row.DoctorEmail,
		Specialization: row.DoctorSpec,
		PhotoURL:       row.DoctorPhoto,
	}
	apt.Patient = &model.UserSummary{
		ID:       apt.PatientID.String(),
		Name:     row.PatientName,
		Email:    row.PatientEmail,
		PhotoURL: row.PatientPhoto,
	}
	return &apt
}

const appointmentSelect = `
	SELECT a.id, a.doctor_id, a.patient_id, a.scheduled_at, a.status,
		   a.notes, a.created_by, a.created_at, a.updated_at,
		   d.name AS doctor_name, d.email AS doctor_email,
		   d.specialization AS doctor_specialization, d.photo_url AS doctor_photo_url,
		   p.name AS patient_name, p.email AS patient_email,
		   p.photo_url AS patient_photo_url
	FROM appointments a
	JOIN users d ON d.id = a.doctor_id
	JOIN users p ON p.id = a.patient_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, scheduled_at, status, notes,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedBy,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		// The partial unique index over active (doctor_id, scheduled_at)
		// pairs serializes concurrent bookings for the same slot.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var row appointmentRow
	if err := r.db.GetContext(ctx, &row, appointmentSelect+" WHERE a.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return row.toModel(), nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, notes = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		where += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.PatientID != uuid.Nil {
		where += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		where += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	// Date filters match the whole calendar day, not the exact timestamp.
	if filters.Date != nil {
		d := filters.Date
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		where += fmt.Sprintf(" AND a.scheduled_at >= $%d AND a.scheduled_at < $%d", argCount, argCount+1)
		args = append(args, day, day.Add(24*time.Hour))
		argCount += 2
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM appointments a" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := appointmentSelect + where + fmt.Sprintf(`
		ORDER BY a.scheduled_at DESC
		LIMIT $%d OFFSET $%d`, argCount, argCount+1)
	args = append(args, filters.Limit, filters.Offset())

	var rows []appointmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}

	appointments := make([]*model.Appointment, 0, len(rows))
	for i := range rows {
		appointments = append(appointments, rows[i].toModel())
	}
	return appointments, total, nil
}

func (r *appointmentRepository) HasActiveAtSlot(ctx context.Context, doctorID uuid.UUID, scheduledAt time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND scheduled_at = $2
			AND status IN ('PENDING', 'CONFIRMED')
		)
	`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, doctorID, scheduledAt); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}
