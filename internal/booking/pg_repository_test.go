package booking

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapInsertError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			"doctor slot conflict",
			&pgconn.PgError{Code: uniqueViolation, ConstraintName: "appointments_doctor_slot_uniq"},
			ErrSlotTaken,
		},
		{
			"patient duplicate",
			&pgconn.PgError{Code: uniqueViolation, ConstraintName: "appointments_patient_slot_uniq"},
			ErrDuplicateBooking,
		},
		{
			"relative duplicate",
			&pgconn.PgError{Code: uniqueViolation, ConstraintName: "appointments_relative_slot_uniq"},
			ErrDuplicateBooking,
		},
		{
			"unknown unique violation defaults to slot taken",
			&pgconn.PgError{Code: uniqueViolation, ConstraintName: "something_else"},
			ErrSlotTaken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapInsertError(tt.in), tt.want)
		})
	}

	// non-unique errors pass through untouched
	other := errors.New("connection reset")
	assert.Equal(t, other, mapInsertError(other))
	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), mapInsertError(fk))
}
