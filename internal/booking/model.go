package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusCompleted       Status = "completed"
)

// Role of the caller creating or mutating an appointment. Authentication is
// external; only the role claim reaches this service.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
)

type Specialty struct {
	ID   uuid.UUID
	Name string
}

type Doctor struct {
	ID          uuid.UUID
	Name        string
	SpecialtyID uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Patient struct {
	ID        uuid.UUID
	FullName  string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RelativeProfile is a dependent record a patient books on behalf of.
// An appointment references either a Patient or a RelativeProfile, never both.
type RelativeProfile struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	FullName     string
	Relationship string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID          uuid.UUID
	PatientID   *uuid.UUID
	RelativeID  *uuid.UUID
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	VisitDate   time.Time // date only, midnight UTC
	TimeLabel   string    // "HH:MM" within a shift window
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AppointmentDetail struct {
	Appointment
	Doctor   *Doctor
	Patient  *Patient
	Relative *RelativeProfile
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
