package ticket

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusCalled  Status = "called"
	StatusServed  Status = "served"
	StatusSkipped Status = "skipped"
)

// Ticket is the per-day queue number issued once payment is confirmed.
// For a given issue date, sequence numbers are dense starting at 1.
type Ticket struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	IssueDate     time.Time // the appointment's clinic day
	SeqNo         int
	Status        Status
	CreatedAt     time.Time
}
