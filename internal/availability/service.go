package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

// ShiftAvailability is one doctor's free labels within one worked shift,
// together with the window the labels were generated from so a client can
// render the shift grid.
type ShiftAvailability struct {
	Shift      schedule.Shift
	Window     schedule.Window
	FreeLabels []string
}

// DoctorAvailability lists a doctor's free labels grouped by shift. A doctor
// with zero free labels is still present so clients can show "fully booked";
// a doctor with no worked shift that day is excluded entirely.
type DoctorAvailability struct {
	Doctor booking.Doctor
	Shifts []ShiftAvailability
}

type Result struct {
	Date    time.Time
	Doctors []DoctorAvailability
	Windows map[schedule.Shift]schedule.Window
}

// Service computes advisory availability. It is read-only; the authoritative
// free-slot check happens again at creation time inside the store.
type Service struct {
	bookings    booking.Repository
	shifts      schedule.Repository
	stepMinutes int
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(bookings booking.Repository, shifts schedule.Repository, stepMinutes int, logger *zap.Logger) *Service {
	return &Service{
		bookings:    bookings,
		shifts:      shifts,
		stepMinutes: stepMinutes,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Availability(ctx context.Context, specialtyID uuid.UUID, day time.Time, role booking.Role) (*Result, error) {
	now := s.now()
	if err := booking.ValidateBookingDate(role, day, now); err != nil {
		return nil, err
	}
	day = booking.DateOnly(day)

	windows, err := s.shifts.ShiftWindows(ctx, schedule.MonthKey(day))
	if err != nil {
		return nil, fmt.Errorf("load shift windows: %w", err)
	}

	doctors, err := s.bookings.ListDoctorsBySpecialty(ctx, specialtyID)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	sameDay := day.Equal(booking.DateOnly(now))
	nowMin := now.Hour()*60 + now.Minute()

	result := &Result{Date: day, Windows: windows}

	for _, doc := range doctors {
		worked, err := s.shifts.WorkedShifts(ctx, doc.ID, day)
		if err != nil {
			return nil, fmt.Errorf("load worked shifts: %w", err)
		}
		if len(worked) == 0 {
			continue
		}

		booked, err := s.bookings.BookedLabels(ctx, doc.ID, day)
		if err != nil {
			return nil, fmt.Errorf("load booked labels: %w", err)
		}

		da := DoctorAvailability{Doctor: doc}
		for _, shift := range worked {
			w, ok := windows[shift]
			if !ok {
				s.logger.Warn("worked shift has no window for month",
					zap.String("doctor_id", doc.ID.String()),
					zap.String("shift", string(shift)),
				)
				continue
			}

			free := Subtract(Labels(w, s.stepMinutes), booked)
			if sameDay {
				free = ClipBefore(free, nowMin)
			}

			da.Shifts = append(da.Shifts, ShiftAvailability{
				Shift:      shift,
				Window:     w,
				FreeLabels: free,
			})
		}

		sort.Slice(da.Shifts, func(i, j int) bool {
			return da.Shifts[i].Window.StartMin < da.Shifts[j].Window.StartMin
		})

		result.Doctors = append(result.Doctors, da)
	}

	return result, nil
}
