package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

// Window is the clock-time span of a shift for one month, in minutes of day.
// The span is half-open: a label at EndMin is not bookable.
type Window struct {
	StartMin int
	EndMin   int
}

func (w Window) StartLabel() string { return MinutesToLabel(w.StartMin) }
func (w Window) EndLabel() string   { return MinutesToLabel(w.EndMin) }

func (w Window) Contains(minOfDay int) bool {
	return minOfDay >= w.StartMin && minOfDay < w.EndMin
}

// WorkShiftFact records that a doctor works a named shift on a calendar day.
// Facts come from the external roster scheduler and are read-only here.
type WorkShiftFact struct {
	DoctorID uuid.UUID
	WorkDate time.Time
	Shift    Shift
}

// MinutesToLabel renders minutes of day as a "HH:MM" time label.
func MinutesToLabel(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// LabelToMinutes parses a "HH:MM" time label into minutes of day.
func LabelToMinutes(label string) (int, error) {
	t, err := time.Parse("15:04", label)
	if err != nil {
		return 0, fmt.Errorf("invalid time label %q: %w", label, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MonthKey renders the month of a date as "YYYY-MM", the key shift windows
// are stored under.
func MonthKey(day time.Time) string {
	return day.Format("2006-01")
}
