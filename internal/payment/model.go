package payment

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Intent tracks the resolution of one payment, keyed by appointment id. The
// outcome moves off pending exactly once in the succeeded direction; a failed
// probe may still be overridden by a later success, never the reverse.
type Intent struct {
	AppointmentID uuid.UUID
	Amount        int64
	GatewayTxnID  *string
	LastPayload   []byte // raw last-seen callback parameters, kept for audit
	Outcome       Outcome
	ResolvedAt    *time.Time
	UpdatedAt     time.Time
}
