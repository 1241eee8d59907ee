package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrRelativeNotFound    = errors.New("relative profile not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is the store's verdict on a booking race: the
	// (doctor, date, time label) uniqueness constraint rejected the insert.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrDuplicateBooking fires when the same patient record already holds
	// an appointment at that date and time label.
	ErrDuplicateBooking = errors.New("patient already booked at this time")
)

type CreateParams struct {
	PatientID   *uuid.UUID
	RelativeID  *uuid.UUID
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	VisitDate   time.Time
	TimeLabel   string
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialtyID uuid.UUID) ([]Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetRelativeByID(ctx context.Context, id uuid.UUID) (*RelativeProfile, error)

	// CreateAppointment inserts in awaiting_payment; the unique constraint on
	// (doctor, date, label) is the arbiter between concurrent attempts.
	CreateAppointment(ctx context.Context, p CreateParams) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)

	// BookedLabels lists time labels of all appointments held by a doctor on
	// a day, regardless of status. Cancelled appointments are deleted rows and
	// therefore never appear.
	BookedLabels(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error)

	// UpdateAppointmentStatus performs a conditional transition and fails with
	// ErrAppointmentNotFound when the from-status no longer matches.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// DeleteAppointment removes the record only while its status is one of
	// allowed; reports whether a row was removed.
	DeleteAppointment(ctx context.Context, id uuid.UUID, allowed []Status) (bool, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
