package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-booking/internal/booking"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
)

func TestHandleBookingErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"patient ref", booking.ErrPatientRef, http.StatusBadRequest, "validation_failed"},
		{"bad label", booking.ErrInvalidTimeLabel, http.StatusBadRequest, "validation_failed"},
		{"date rule", booking.ErrDateNotBookable, http.StatusBadRequest, "validation_failed"},
		{"outside shift", booking.ErrOutsideShift, http.StatusBadRequest, "validation_failed"},
		{"specialty mismatch", booking.ErrSpecialtyMismatch, http.StatusBadRequest, "validation_failed"},
		{"doctor missing", booking.ErrDoctorNotFound, http.StatusNotFound, "not_found"},
		{"appointment missing", booking.ErrAppointmentNotFound, http.StatusNotFound, "not_found"},
		{"slot taken", booking.ErrSlotTaken, http.StatusConflict, "slot_taken"},
		{"duplicate booking", booking.ErrDuplicateBooking, http.StatusConflict, "duplicate_booking"},
		{"slot being booked", booking.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{"lock contention", redisclient.ErrLockNotAcquired, http.StatusConflict, "slot_being_booked"},
		{"too late to cancel", booking.ErrTooLateToCancel, http.StatusConflict, "not_cancellable"},
		{"not cancellable", booking.ErrNotCancellable, http.StatusConflict, "not_cancellable"},
		{"changed during cancel", booking.ErrAppointmentChanged, http.StatusConflict, "not_cancellable"},
		{"unknown", errors.New("db on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleBookingError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var res ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.wantCode, res.Error)
		})
	}
}

func TestParseDate(t *testing.T) {
	day, err := parseDate("2026-09-02")
	require.NoError(t, err)
	assert.Equal(t, 2026, day.Year())

	_, err = parseDate("02/09/2026")
	assert.Error(t, err)

	_, err = parseDate("")
	assert.Error(t, err)
}
