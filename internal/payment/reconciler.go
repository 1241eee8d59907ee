package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/observability/metrics"
	"github.com/clinicdesk/clinic-booking/internal/ticket"
)

// The three gateway channels plus the staff cash path all funnel into the
// same resolution. No ordering is assumed between them.
const (
	ChannelWebhook      = "webhook"
	ChannelRedirectPost = "redirect_post"
	ChannelRedirectGet  = "redirect_get"
	ChannelCash         = "cash"
)

// ResultSuccess is the gateway's result code for a completed payment.
const ResultSuccess = 0

const (
	EventPaymentResolved = "PAYMENT_RESOLVED"
	EventTicketIssued    = "TICKET_ISSUED"
)

var (
	ErrBadSignature = errors.New("gateway signature mismatch")
	ErrBadEvent     = errors.New("malformed gateway event")
)

// Event is one confirmation arriving on any channel, already
// signature-verified.
type Event struct {
	Channel       string
	AppointmentID uuid.UUID
	ResultCode    int
	TransactionID string
	Amount        int64
	Raw           []byte
}

// EventFromParams maps the gateway's common parameter shape onto an Event.
func EventFromParams(channel string, params map[string]string) (Event, error) {
	apptID, err := uuid.Parse(params["orderId"])
	if err != nil {
		return Event{}, fmt.Errorf("%w: bad orderId", ErrBadEvent)
	}

	resultCode, err := strconv.Atoi(params["resultCode"])
	if err != nil {
		return Event{}, fmt.Errorf("%w: bad resultCode", ErrBadEvent)
	}

	amount, _ := strconv.ParseInt(params["amount"], 10, 64)

	raw, err := json.Marshal(params)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}

	return Event{
		Channel:       channel,
		AppointmentID: apptID,
		ResultCode:    resultCode,
		TransactionID: params["transId"],
		Amount:        amount,
		Raw:           raw,
	}, nil
}

// Resolution is what every channel gets back. Duplicates receive the same
// shape as the first resolution, with AlreadyResolved set.
type Resolution struct {
	Appointment     *booking.Appointment
	Outcome         Outcome
	AlreadyResolved bool
	Ticket          *ticket.Ticket
}

type Reconciler struct {
	intents  Repository
	bookings booking.Repository
	tickets  ticket.Allocator
	secret   string
	fee      int64
	logger   *zap.Logger
	metrics  *metrics.BookingMetrics
}

func NewReconciler(intents Repository, bookings booking.Repository, tickets ticket.Allocator, secret string, fee int64, logger *zap.Logger, m *metrics.BookingMetrics) *Reconciler {
	return &Reconciler{
		intents:  intents,
		bookings: bookings,
		tickets:  tickets,
		secret:   secret,
		fee:      fee,
		logger:   logger,
		metrics:  m,
	}
}

// VerifyAndResolve checks the channel's signed parameters and, when valid,
// applies the idempotent resolution. A signature mismatch changes no state.
func (rc *Reconciler) VerifyAndResolve(ctx context.Context, channel string, params map[string]string) (*Resolution, error) {
	if !VerifyParams(rc.secret, params) {
		rc.logger.Warn("rejected gateway event with bad signature",
			zap.String("channel", channel),
			zap.String("order_id", params["orderId"]),
		)
		rc.metrics.ObservePaymentEvent(channel, "bad_signature")
		return nil, ErrBadSignature
	}

	evt, err := EventFromParams(channel, params)
	if err != nil {
		return nil, err
	}

	return rc.Resolve(ctx, evt)
}

// Resolve applies the exactly-once contract: whichever caller wins the
// conditional update on the intent performs the paid transition and the
// single ticket allocation; everyone else observes the already-resolved
// state as a no-op success.
func (rc *Reconciler) Resolve(ctx context.Context, evt Event) (*Resolution, error) {
	start := time.Now()
	defer func() {
		rc.metrics.ObserveResolveLatency(evt.Channel, time.Since(start).Seconds())
	}()

	appt, err := rc.bookings.GetAppointmentByID(ctx, evt.AppointmentID)
	if err != nil {
		return nil, err
	}

	if _, err := rc.intents.GetIntent(ctx, appt.ID); err != nil {
		if !errors.Is(err, ErrIntentNotFound) || evt.Channel != ChannelCash {
			return nil, err
		}
		// Cash confirmations may arrive without a prior gateway session.
		if _, err := rc.intents.EnsureIntent(ctx, appt.ID, rc.fee); err != nil {
			return nil, err
		}
	}

	if evt.ResultCode != ResultSuccess {
		return rc.resolveFailure(ctx, appt, evt)
	}

	won, err := rc.intents.ResolveSucceeded(ctx, appt.ID, evt.TransactionID, evt.Raw)
	if err != nil {
		return nil, err
	}

	if !won {
		rc.metrics.ObservePaymentEvent(evt.Channel, "duplicate")
		res := &Resolution{Appointment: appt, Outcome: OutcomeSucceeded, AlreadyResolved: true}
		if t, terr := rc.tickets.GetByAppointment(ctx, appt.ID); terr == nil {
			res.Ticket = t
		}
		return res, nil
	}

	appt.Status = booking.StatusPaid
	rc.metrics.ObservePaymentEvent(evt.Channel, "succeeded")
	rc.logEvent(ctx, appt.ID, EventPaymentResolved, map[string]any{
		"channel":  evt.Channel,
		"trans_id": evt.TransactionID,
		"amount":   evt.Amount,
	})

	// The winner, and only the winner, allocates. A failure here leaves the
	// appointment paid without a ticket, which the sweep worker repairs; the
	// gateway still gets a success so it does not re-confirm a valid payment.
	t, err := rc.tickets.EnsureTicket(ctx, appt.ID, appt.VisitDate)
	if err != nil {
		rc.logger.Error("ticket allocation failed after payment, sweep will retry",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return &Resolution{Appointment: appt, Outcome: OutcomeSucceeded}, nil
	}

	rc.metrics.ObserveTicketIssued()
	rc.logEvent(ctx, appt.ID, EventTicketIssued, map[string]any{
		"seq_no":     t.SeqNo,
		"issue_date": t.IssueDate.Format("2006-01-02"),
	})

	return &Resolution{Appointment: appt, Outcome: OutcomeSucceeded, Ticket: t}, nil
}

func (rc *Reconciler) resolveFailure(ctx context.Context, appt *booking.Appointment, evt Event) (*Resolution, error) {
	won, err := rc.intents.MarkFailed(ctx, appt.ID, evt.Raw)
	if err != nil {
		return nil, err
	}

	if !won {
		// Already resolved; a failure probe never downgrades a success.
		intent, err := rc.intents.GetIntent(ctx, appt.ID)
		if err != nil {
			return nil, err
		}
		rc.metrics.ObservePaymentEvent(evt.Channel, "duplicate")
		res := &Resolution{Appointment: appt, Outcome: intent.Outcome, AlreadyResolved: true}
		if intent.Outcome == OutcomeSucceeded {
			if t, terr := rc.tickets.GetByAppointment(ctx, appt.ID); terr == nil {
				res.Ticket = t
			}
		}
		return res, nil
	}

	rc.metrics.ObservePaymentEvent(evt.Channel, "failed")
	rc.logEvent(ctx, appt.ID, EventPaymentResolved, map[string]any{
		"channel":     evt.Channel,
		"result_code": evt.ResultCode,
		"outcome":     string(OutcomeFailed),
	})

	// The appointment stays awaiting_payment so a later success can still
	// land through any channel.
	return &Resolution{Appointment: appt, Outcome: OutcomeFailed}, nil
}

// ConfirmCash is the staff cash-confirmation action, treated as a fourth
// channel that succeeds immediately.
func (rc *Reconciler) ConfirmCash(ctx context.Context, appointmentID uuid.UUID) (*Resolution, error) {
	raw, _ := json.Marshal(map[string]string{"channel": ChannelCash})
	return rc.Resolve(ctx, Event{
		Channel:       ChannelCash,
		AppointmentID: appointmentID,
		ResultCode:    ResultSuccess,
		TransactionID: "CASH-" + uuid.NewString(),
		Amount:        rc.fee,
		Raw:           raw,
	})
}

func (rc *Reconciler) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}

	apptID := appointmentID
	ev := booking.EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := rc.bookings.InsertEvent(ctx, ev); err != nil {
		rc.logger.Warn("insert event log failed",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
