package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.SpecialtyID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var phone *string

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Phone = phone
	return &p, nil
}

func scanRelative(row pgx.Row) (*RelativeProfile, error) {
	var rp RelativeProfile

	err := row.Scan(
		&rp.ID,
		&rp.PatientID,
		&rp.FullName,
		&rp.Relationship,
		&rp.CreatedAt,
		&rp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRelativeNotFound
		}
		return nil, err
	}

	return &rp, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var patientID, relativeID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&patientID,
		&relativeID,
		&a.DoctorID,
		&a.SpecialtyID,
		&a.VisitDate,
		&a.TimeLabel,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.PatientID = patientID
	a.RelativeID = relativeID
	return &a, nil
}

const appointmentColumns = `id, patient_id, relative_id, doctor_id, specialty_id, visit_date, time_label, status, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty_id, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorsBySpecialty(ctx context.Context, specialtyID uuid.UUID) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty_id, created_at, updated_at
		FROM doctors
		WHERE specialty_id = $1
		ORDER BY name
	`, specialtyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetRelativeByID(ctx context.Context, id uuid.UUID) (*RelativeProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, full_name, relationship, created_at, updated_at
		FROM relative_profiles
		WHERE id = $1
	`, id)
	return scanRelative(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, p CreateParams) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, relative_id, doctor_id, specialty_id, visit_date, time_label, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'awaiting_payment', now(), now())
		RETURNING `+appointmentColumns+`
	`, id, p.PatientID, p.RelativeID, p.DoctorID, p.SpecialtyID, p.VisitDate, p.TimeLabel)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, mapInsertError(err)
	}
	return appt, nil
}

// mapInsertError turns unique violations into domain conflicts. The doctor
// slot constraint and the per-patient duplicate constraints are told apart by
// constraint name.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "doctor_slot") {
			return ErrSlotTaken
		}
		if strings.Contains(pgErr.ConstraintName, "patient_slot") || strings.Contains(pgErr.ConstraintName, "relative_slot") {
			return ErrDuplicateBooking
		}
		return ErrSlotTaken
	}
	return err
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := AppointmentDetail{Appointment: *appt}

	doctor, err := r.GetDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	detail.Doctor = doctor

	if appt.PatientID != nil {
		patient, err := r.GetPatientByID(ctx, *appt.PatientID)
		if err != nil {
			return nil, fmt.Errorf("load patient: %w", err)
		}
		detail.Patient = patient
	}
	if appt.RelativeID != nil {
		relative, err := r.GetRelativeByID(ctx, *appt.RelativeID)
		if err != nil {
			return nil, fmt.Errorf("load relative: %w", err)
		}
		detail.Relative = relative
	}

	return &detail, nil
}

func (r *PgRepository) BookedLabels(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_label
		FROM appointments
		WHERE doctor_id = $1 AND visit_date = $2
	`, doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}

	return labels, rows.Err()
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID, allowed []Status) (bool, error) {
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1 AND status = ANY($2)
	`, id, statuses)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
