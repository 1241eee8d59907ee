package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/payment"
)

func createPaymentSessionHandler(bookings booking.Repository, intents payment.Repository, sessions *payment.SessionClient, fee int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := bookings.GetAppointmentByID(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		if appt.Status != booking.StatusAwaitingPayment {
			writeError(w, http.StatusConflict, "already_paid", "appointment is not awaiting payment")
			return
		}

		if _, err := intents.EnsureIntent(r.Context(), appt.ID, fee); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		payURL, err := sessions.CreateSession(r.Context(), appt.ID, fee)
		if err != nil {
			if errors.Is(err, payment.ErrGatewayRejected) {
				writeError(w, http.StatusBadGateway, "gateway_rejected", err.Error())
				return
			}
			writeError(w, http.StatusBadGateway, "gateway_unreachable", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, PaymentSessionResponse{PayURL: payURL})
	}
}

// cashPayHandler is the staff cash-confirmation channel. Re-invoking it on a
// paid appointment is a no-op that returns the existing ticket.
func cashPayHandler(rc *payment.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		res, err := rc.ConfirmCash(r.Context(), id)
		if err != nil {
			handlePaymentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResolutionResponse(res))
	}
}

// The gateway reports one transaction through three channels: a
// server-to-server push, a browser redirect POST and a browser redirect GET.
// All carry the same signed parameter shape and resolve identically.

func gatewayWebhookHandler(rc *payment.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paramsFromJSONBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		resolveGatewayEvent(w, r, rc, payment.ChannelWebhook, params)
	}
}

func gatewayReturnPostHandler(rc *payment.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse form")
			return
		}
		resolveGatewayEvent(w, r, rc, payment.ChannelRedirectPost, paramsFromValues(r.PostForm))
	}
}

func gatewayReturnGetHandler(rc *payment.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolveGatewayEvent(w, r, rc, payment.ChannelRedirectGet, paramsFromValues(r.URL.Query()))
	}
}

func resolveGatewayEvent(w http.ResponseWriter, r *http.Request, rc *payment.Reconciler, channel string, params map[string]string) {
	res, err := rc.VerifyAndResolve(r.Context(), channel, params)
	if err != nil {
		handlePaymentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResolutionResponse(res))
}

func handlePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrBadSignature):
		writeError(w, http.StatusUnauthorized, "bad_signature", "signature verification failed")
	case errors.Is(err, payment.ErrBadEvent):
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
	case errors.Is(err, payment.ErrIntentNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, payment.ErrAppointmentNotAwaiting):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func paramsFromJSONBody(r *http.Request) (map[string]string, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			params[k] = val
		case json.Number:
			params[k] = val.String()
		}
	}
	return params, nil
}

func paramsFromValues(values map[string][]string) map[string]string {
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
