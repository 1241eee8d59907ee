package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/config"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

var (
	ErrPatientRef         = errors.New("exactly one of patient or relative must be set")
	ErrInvalidTimeLabel   = errors.New("invalid time label")
	ErrDateNotBookable    = errors.New("date is not bookable for this caller")
	ErrOutsideShift       = errors.New("doctor has no worked shift covering this slot")
	ErrSpecialtyMismatch  = errors.New("doctor does not belong to the requested specialty")
	ErrSlotBeingBooked    = errors.New("slot is currently being booked, please retry")
	ErrAppointmentChanged = errors.New("appointment changed state during cancellation")
)

type CreateRequest struct {
	Role        Role
	PatientID   *uuid.UUID
	RelativeID  *uuid.UUID
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	VisitDate   time.Time
	TimeLabel   string
}

type Service struct {
	repo   Repository
	shifts schedule.Repository
	locker redisclient.Locker
	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, shifts schedule.Repository, locker redisclient.Locker, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		shifts: shifts,
		locker: locker,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ValidateBookingDate enforces the role-dependent date rule: patients may only
// book strictly future dates; staff walk-ins may use the current date.
func ValidateBookingDate(role Role, visitDate, now time.Time) error {
	visit := DateOnly(visitDate)
	today := DateOnly(now)

	switch role {
	case RoleStaff:
		if visit.Before(today) {
			return ErrDateNotBookable
		}
	default:
		if !visit.After(today) {
			return ErrDateNotBookable
		}
	}
	return nil
}

// Create reserves a slot as awaiting_payment. The Redis lock sheds concurrent
// attempts for the same slot; the unique constraint in the store remains the
// final arbiter, so losing the race surfaces as ErrSlotTaken either way.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if (req.PatientID == nil) == (req.RelativeID == nil) {
		return nil, ErrPatientRef
	}

	labelMin, err := schedule.LabelToMinutes(req.TimeLabel)
	if err != nil {
		return nil, ErrInvalidTimeLabel
	}

	now := s.now()
	if err := ValidateBookingDate(req.Role, req.VisitDate, now); err != nil {
		return nil, err
	}
	visit := DateOnly(req.VisitDate)

	if req.PatientID != nil {
		if _, err := s.repo.GetPatientByID(ctx, *req.PatientID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.repo.GetRelativeByID(ctx, *req.RelativeID); err != nil {
			return nil, err
		}
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.SpecialtyID != req.SpecialtyID {
		return nil, ErrSpecialtyMismatch
	}

	shift, window, err := s.shiftForLabel(ctx, visit, labelMin)
	if err != nil {
		return nil, err
	}

	worked, err := s.shifts.HasWorkedShift(ctx, req.DoctorID, visit, shift)
	if err != nil {
		return nil, fmt.Errorf("check work shift: %w", err)
	}
	if !worked {
		return nil, ErrOutsideShift
	}

	// Same-day walk-in: staff may only book while the clock is inside the
	// shift's remaining window.
	if req.Role == RoleStaff && visit.Equal(DateOnly(now)) {
		nowMin := now.Hour()*60 + now.Minute()
		if !window.Contains(nowMin) {
			return nil, ErrOutsideShift
		}
	}

	var created *Appointment

	slotKey := fmt.Sprintf("slot:%s:%s:%s", req.DoctorID, visit.Format("2006-01-02"), req.TimeLabel)
	err = s.locker.WithLock(ctx, slotKey, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateAppointment(lockCtx, CreateParams{
			PatientID:   req.PatientID,
			RelativeID:  req.RelativeID,
			DoctorID:    req.DoctorID,
			SpecialtyID: req.SpecialtyID,
			VisitDate:   visit,
			TimeLabel:   req.TimeLabel,
		})
		if err != nil {
			return err
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"doctor_id":  req.DoctorID.String(),
			"visit_date": visit.Format("2006-01-02"),
			"time_label": req.TimeLabel,
			"role":       string(req.Role),
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// Cancel removes the appointment record, subject to the cancellation policy.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}

	visitAt, err := appointmentTime(appt)
	if err != nil {
		return err
	}

	if err := CancellationAllowed(appt.Status, visitAt, s.now(), s.cfg.CancelBuffer); err != nil {
		return err
	}

	// Delete conditionally on the observed status so a concurrent payment
	// cannot slip a paid appointment past the unpaid policy path.
	deleted, err := s.repo.DeleteAppointment(ctx, id, []Status{appt.Status})
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if !deleted {
		return ErrAppointmentChanged
	}

	s.logEvent(ctx, id, EventAppointmentCancelled, map[string]any{
		"status_at_cancel": string(appt.Status),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// IsCompleted answers the clinical-intake collaborator's only question about
// an appointment's terminal state.
func (s *Service) IsCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return false, err
	}
	return appt.Status == StatusCompleted, nil
}

func (s *Service) shiftForLabel(ctx context.Context, visit time.Time, labelMin int) (schedule.Shift, schedule.Window, error) {
	windows, err := s.shifts.ShiftWindows(ctx, schedule.MonthKey(visit))
	if err != nil {
		return "", schedule.Window{}, fmt.Errorf("load shift windows: %w", err)
	}

	for shift, w := range windows {
		if w.Contains(labelMin) {
			return shift, w, nil
		}
	}
	return "", schedule.Window{}, ErrOutsideShift
}

func appointmentTime(a *Appointment) (time.Time, error) {
	min, err := schedule.LabelToMinutes(a.TimeLabel)
	if err != nil {
		return time.Time{}, ErrInvalidTimeLabel
	}
	return a.VisitDate.Add(time.Duration(min) * time.Minute), nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal event payload failed", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("insert event log failed",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
