package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/availability"
	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/payment"
	"github.com/clinicdesk/clinic-booking/internal/schedule"
	"github.com/clinicdesk/clinic-booking/internal/ticket"
)

type CreateAppointmentRequest struct {
	DoctorID    string  `json:"doctor_id" validate:"required,uuid"`
	SpecialtyID string  `json:"specialty_id" validate:"required,uuid"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	TimeLabel   string  `json:"time_label" validate:"required"`
	PatientID   *string `json:"patient_id" validate:"omitempty,uuid"`
	RelativeID  *string `json:"relative_id" validate:"omitempty,uuid"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	DoctorID    uuid.UUID  `json:"doctor_id"`
	SpecialtyID uuid.UUID  `json:"specialty_id"`
	Date        string     `json:"date"`
	TimeLabel   string     `json:"time_label"`
	Status      string     `json:"status"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
	RelativeID  *uuid.UUID `json:"relative_id,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		SpecialtyID: a.SpecialtyID,
		Date:        a.VisitDate.Format("2006-01-02"),
		TimeLabel:   a.TimeLabel,
		Status:      string(a.Status),
		PatientID:   a.PatientID,
		RelativeID:  a.RelativeID,
	}
}

type TicketResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	SeqNo         int       `json:"seq_no"`
	IssueDate     string    `json:"issue_date"`
	Status        string    `json:"status"`
}

func toTicketResponse(t *ticket.Ticket) *TicketResponse {
	if t == nil {
		return nil
	}
	return &TicketResponse{
		AppointmentID: t.AppointmentID,
		SeqNo:         t.SeqNo,
		IssueDate:     t.IssueDate.Format("2006-01-02"),
		Status:        string(t.Status),
	}
}

type PaymentSessionResponse struct {
	PayURL string `json:"pay_url"`
}

// ResolutionResponse is shared by all confirmation channels; duplicates get
// the same shape as the first resolution.
type ResolutionResponse struct {
	AppointmentID   uuid.UUID       `json:"appointment_id"`
	Outcome         string          `json:"outcome"`
	AlreadyResolved bool            `json:"already_resolved,omitempty"`
	Ticket          *TicketResponse `json:"ticket,omitempty"`
}

func toResolutionResponse(res *payment.Resolution) ResolutionResponse {
	return ResolutionResponse{
		AppointmentID:   res.Appointment.ID,
		Outcome:         string(res.Outcome),
		AlreadyResolved: res.AlreadyResolved,
		Ticket:          toTicketResponse(res.Ticket),
	}
}

type WindowResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ShiftAvailabilityResponse struct {
	Shift      string         `json:"shift"`
	Window     WindowResponse `json:"window"`
	FreeLabels []string       `json:"free_labels"`
}

type DoctorAvailabilityResponse struct {
	DoctorID   uuid.UUID                   `json:"doctor_id"`
	DoctorName string                      `json:"doctor_name"`
	Shifts     []ShiftAvailabilityResponse `json:"shifts"`
}

type AvailabilityResponse struct {
	Date    string                       `json:"date"`
	Windows map[string]WindowResponse    `json:"shift_windows"`
	Doctors []DoctorAvailabilityResponse `json:"doctors"`
}

func toAvailabilityResponse(res *availability.Result) AvailabilityResponse {
	out := AvailabilityResponse{
		Date:    res.Date.Format("2006-01-02"),
		Windows: make(map[string]WindowResponse, len(res.Windows)),
		Doctors: make([]DoctorAvailabilityResponse, 0, len(res.Doctors)),
	}

	for shift, w := range res.Windows {
		out.Windows[string(shift)] = windowResponse(w)
	}

	for _, d := range res.Doctors {
		dr := DoctorAvailabilityResponse{
			DoctorID:   d.Doctor.ID,
			DoctorName: d.Doctor.Name,
			Shifts:     make([]ShiftAvailabilityResponse, 0, len(d.Shifts)),
		}
		for _, sh := range d.Shifts {
			labels := sh.FreeLabels
			if labels == nil {
				labels = []string{}
			}
			dr.Shifts = append(dr.Shifts, ShiftAvailabilityResponse{
				Shift:      string(sh.Shift),
				Window:     windowResponse(sh.Window),
				FreeLabels: labels,
			})
		}
		out.Doctors = append(out.Doctors, dr)
	}

	return out
}

func windowResponse(w schedule.Window) WindowResponse {
	return WindowResponse{Start: w.StartLabel(), End: w.EndLabel()}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
