package booking

import (
	"errors"
	"time"
)

var (
	// ErrNotCancellable means the appointment's state forbids cancellation
	// outright (already completed, or concurrently mutated).
	ErrNotCancellable = errors.New("appointment cannot be cancelled")

	// ErrTooLateToCancel means a paid appointment is inside the cancellation
	// buffer before its scheduled time.
	ErrTooLateToCancel = errors.New("too late to cancel a paid appointment")
)

// CancellationAllowed is the single cancellation policy, invoked from every
// mutation entry point. An unpaid appointment can always be cancelled; a paid
// one only strictly more than buffer before its scheduled time; a completed
// one never.
func CancellationAllowed(status Status, visitAt, now time.Time, buffer time.Duration) error {
	switch status {
	case StatusAwaitingPayment:
		return nil
	case StatusPaid:
		if visitAt.Sub(now) > buffer {
			return nil
		}
		return ErrTooLateToCancel
	default:
		return ErrNotCancellable
	}
}
