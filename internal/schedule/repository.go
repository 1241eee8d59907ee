package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoShiftWindows = errors.New("no shift windows configured for month")
)

// Repository reads work-shift facts produced by the external roster
// scheduler. Nothing in this service writes them.
type Repository interface {
	// WorkedShifts returns the shifts a doctor works on a day, empty when off.
	WorkedShifts(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Shift, error)

	// HasWorkedShift reports whether the doctor works the named shift that day.
	HasWorkedShift(ctx context.Context, doctorID uuid.UUID, day time.Time, shift Shift) (bool, error)

	// ShiftWindows returns the clock-time boundaries of each shift for a month.
	ShiftWindows(ctx context.Context, month string) (map[Shift]Window, error)
}
