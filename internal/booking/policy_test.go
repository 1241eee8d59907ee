package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancellationAllowed(t *testing.T) {
	now := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	buffer := 2 * time.Hour

	tests := []struct {
		name    string
		status  Status
		visitAt time.Time
		wantErr error
	}{
		{"unpaid always cancellable", StatusAwaitingPayment, now.Add(10 * time.Minute), nil},
		{"unpaid cancellable even past visit time", StatusAwaitingPayment, now.Add(-time.Hour), nil},
		{"paid outside buffer", StatusPaid, now.Add(3 * time.Hour), nil},
		{"paid exactly at buffer", StatusPaid, now.Add(2 * time.Hour), ErrTooLateToCancel},
		{"paid inside buffer", StatusPaid, now.Add(30 * time.Minute), ErrTooLateToCancel},
		{"completed never", StatusCompleted, now.Add(24 * time.Hour), ErrNotCancellable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CancellationAllowed(tt.status, tt.visitAt, now, buffer)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBookingDate(t *testing.T) {
	now := time.Date(2026, time.September, 1, 23, 50, 0, 0, time.UTC)

	// patient: strictly future dates only
	assert.ErrorIs(t, ValidateBookingDate(RolePatient, now, now), ErrDateNotBookable)
	assert.NoError(t, ValidateBookingDate(RolePatient, now.AddDate(0, 0, 1), now))
	assert.ErrorIs(t, ValidateBookingDate(RolePatient, now.AddDate(0, 0, -1), now), ErrDateNotBookable)

	// staff: today is allowed, the past is not
	assert.NoError(t, ValidateBookingDate(RoleStaff, now, now))
	assert.NoError(t, ValidateBookingDate(RoleStaff, now.AddDate(0, 0, 1), now))
	assert.ErrorIs(t, ValidateBookingDate(RoleStaff, now.AddDate(0, 0, -1), now), ErrDateNotBookable)
}
