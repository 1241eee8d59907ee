package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/availability"
	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/observability/metrics"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/internal/ticket"
)

func availabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialtyID, err := uuid.Parse(r.URL.Query().Get("specialty"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_specialty", "specialty must be a valid UUID")
			return
		}

		day, err := parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		res, err := svc.Availability(r.Context(), specialtyID, day, RoleFromContext(r.Context()))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(res))
	}
}

func createAppointmentHandler(svc *booking.Service, validate *validator.Validate, m *metrics.BookingMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		doctorID, _ := uuid.Parse(req.DoctorID)
		specialtyID, _ := uuid.Parse(req.SpecialtyID)
		visitDate, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		createReq := booking.CreateRequest{
			Role:        RoleFromContext(r.Context()),
			DoctorID:    doctorID,
			SpecialtyID: specialtyID,
			VisitDate:   visitDate,
			TimeLabel:   req.TimeLabel,
		}
		if req.PatientID != nil {
			id, err := uuid.Parse(*req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			createReq.PatientID = &id
		}
		if req.RelativeID != nil {
			id, err := uuid.Parse(*req.RelativeID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_relative_id", "relative_id must be a valid UUID")
				return
			}
			createReq.RelativeID = &id
		}

		appt, err := svc.Create(r.Context(), createReq)
		if err != nil {
			m.ObserveBooking("rejected")
			handleBookingError(w, err)
			return
		}

		m.ObserveBooking("created")
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(&detail.Appointment))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// getTicketHandler serves the polling loop a client runs after initiating
// payment: either the issued ticket or a retriable "not yet issued".
func getTicketHandler(tickets ticket.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		t, err := tickets.GetByAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, ticket.ErrTicketNotFound) {
				writeError(w, http.StatusNotFound, "ticket_not_issued", "ticket has not been issued yet")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toTicketResponse(t))
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrPatientRef),
		errors.Is(err, booking.ErrInvalidTimeLabel),
		errors.Is(err, booking.ErrDateNotBookable),
		errors.Is(err, booking.ErrSpecialtyMismatch),
		errors.Is(err, booking.ErrOutsideShift):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrPatientNotFound),
		errors.Is(err, booking.ErrRelativeNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "slot already booked, please pick another slot")
	case errors.Is(err, booking.ErrDuplicateBooking):
		writeError(w, http.StatusConflict, "duplicate_booking", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrTooLateToCancel),
		errors.Is(err, booking.ErrNotCancellable),
		errors.Is(err, booking.ErrAppointmentChanged):
		writeError(w, http.StatusConflict, "not_cancellable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
