package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrIntentNotFound = errors.New("payment intent not found")

	// ErrAppointmentNotAwaiting means the conditional resolve won on the
	// intent but the appointment was no longer awaiting payment, which only
	// happens if the record was mutated outside the reconciler.
	ErrAppointmentNotAwaiting = errors.New("appointment not awaiting payment")
)

// Repository persists payment intents. ResolveSucceeded and MarkFailed are
// the two atomic conditional updates the whole idempotency story rests on.
type Repository interface {
	// EnsureIntent creates the pending intent if absent and returns it.
	EnsureIntent(ctx context.Context, appointmentID uuid.UUID, amount int64) (*Intent, error)
	GetIntent(ctx context.Context, appointmentID uuid.UUID) (*Intent, error)

	// ResolveSucceeded atomically sets the outcome to succeeded unless it
	// already is, and flips the appointment to paid in the same transaction.
	// It reports whether this caller won the conditional update; losers see
	// won=false with no state change beyond the audit payload.
	ResolveSucceeded(ctx context.Context, appointmentID uuid.UUID, txnID string, payload []byte) (won bool, err error)

	// MarkFailed moves pending to failed; a resolved intent is left alone.
	MarkFailed(ctx context.Context, appointmentID uuid.UUID, payload []byte) (won bool, err error)
}
