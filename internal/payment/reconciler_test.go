package payment

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/booking"
	"github.com/clinicdesk/clinic-booking/internal/ticket"
)

const testSecret = "gateway-test-secret"

type memBookings struct {
	booking.Repository

	appts  map[uuid.UUID]*booking.Appointment
	events []booking.EventLog
}

func (m *memBookings) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error) {
	if a, ok := m.appts[id]; ok {
		return a, nil
	}
	return nil, booking.ErrAppointmentNotFound
}

func (m *memBookings) InsertEvent(ctx context.Context, ev booking.EventLog) error {
	m.events = append(m.events, ev)
	return nil
}

// memIntents mirrors the conditional-update semantics of the Postgres
// implementation, including the paid transition the winner performs.
type memIntents struct {
	intents  map[uuid.UUID]*Intent
	bookings *memBookings
}

func (m *memIntents) EnsureIntent(ctx context.Context, appointmentID uuid.UUID, amount int64) (*Intent, error) {
	if in, ok := m.intents[appointmentID]; ok {
		return in, nil
	}
	in := &Intent{AppointmentID: appointmentID, Amount: amount, Outcome: OutcomePending}
	m.intents[appointmentID] = in
	return in, nil
}

func (m *memIntents) GetIntent(ctx context.Context, appointmentID uuid.UUID) (*Intent, error) {
	if in, ok := m.intents[appointmentID]; ok {
		return in, nil
	}
	return nil, ErrIntentNotFound
}

func (m *memIntents) ResolveSucceeded(ctx context.Context, appointmentID uuid.UUID, txnID string, payload []byte) (bool, error) {
	in, ok := m.intents[appointmentID]
	if !ok {
		return false, ErrIntentNotFound
	}
	in.LastPayload = payload
	if in.Outcome == OutcomeSucceeded {
		return false, nil
	}

	appt := m.bookings.appts[appointmentID]
	if appt.Status != booking.StatusAwaitingPayment {
		return false, ErrAppointmentNotAwaiting
	}
	appt.Status = booking.StatusPaid

	in.Outcome = OutcomeSucceeded
	in.GatewayTxnID = &txnID
	now := time.Now()
	in.ResolvedAt = &now
	return true, nil
}

func (m *memIntents) MarkFailed(ctx context.Context, appointmentID uuid.UUID, payload []byte) (bool, error) {
	in, ok := m.intents[appointmentID]
	if !ok {
		return false, ErrIntentNotFound
	}
	in.LastPayload = payload
	if in.Outcome != OutcomePending {
		return false, nil
	}
	in.Outcome = OutcomeFailed
	return true, nil
}

type memAllocator struct {
	tickets map[uuid.UUID]*ticket.Ticket
	nextSeq int
	fail    error
}

func (m *memAllocator) EnsureTicket(ctx context.Context, appointmentID uuid.UUID, day time.Time) (*ticket.Ticket, error) {
	if t, ok := m.tickets[appointmentID]; ok {
		return t, nil
	}
	if m.fail != nil {
		return nil, m.fail
	}
	m.nextSeq++
	t := &ticket.Ticket{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		IssueDate:     day,
		SeqNo:         m.nextSeq,
		Status:        ticket.StatusWaiting,
	}
	m.tickets[appointmentID] = t
	return t, nil
}

func (m *memAllocator) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*ticket.Ticket, error) {
	if t, ok := m.tickets[appointmentID]; ok {
		return t, nil
	}
	return nil, ticket.ErrTicketNotFound
}

type reconcilerFixture struct {
	rc        *Reconciler
	bookings  *memBookings
	intents   *memIntents
	allocator *memAllocator
	apptID    uuid.UUID
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	apptID := uuid.New()
	bookings := &memBookings{
		appts: map[uuid.UUID]*booking.Appointment{
			apptID: {
				ID:        apptID,
				DoctorID:  uuid.New(),
				VisitDate: time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC),
				TimeLabel: "08:00",
				Status:    booking.StatusAwaitingPayment,
			},
		},
	}
	intents := &memIntents{intents: map[uuid.UUID]*Intent{}, bookings: bookings}
	allocator := &memAllocator{tickets: map[uuid.UUID]*ticket.Ticket{}}

	_, err := intents.EnsureIntent(context.Background(), apptID, 150000)
	require.NoError(t, err)

	rc := NewReconciler(intents, bookings, allocator, testSecret, 150000, zap.NewNop(), nil)

	return &reconcilerFixture{rc: rc, bookings: bookings, intents: intents, allocator: allocator, apptID: apptID}
}

func successEvent(fx *reconcilerFixture, channel string) Event {
	return Event{
		Channel:       channel,
		AppointmentID: fx.apptID,
		ResultCode:    ResultSuccess,
		TransactionID: "TXN-1",
		Amount:        150000,
		Raw:           []byte(`{}`),
	}
}

func TestResolveSuccessPaysAndIssuesTicket(t *testing.T) {
	fx := newReconcilerFixture(t)

	res, err := fx.rc.Resolve(context.Background(), successEvent(fx, ChannelWebhook))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.False(t, res.AlreadyResolved)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, 1, res.Ticket.SeqNo)
	assert.Equal(t, booking.StatusPaid, fx.bookings.appts[fx.apptID].Status)
}

func TestResolveDuplicateSuccessIsNoOp(t *testing.T) {
	fx := newReconcilerFixture(t)

	first, err := fx.rc.Resolve(context.Background(), successEvent(fx, ChannelWebhook))
	require.NoError(t, err)

	// the browser redirect lands after the webhook already resolved
	second, err := fx.rc.Resolve(context.Background(), successEvent(fx, ChannelRedirectGet))
	require.NoError(t, err)

	assert.True(t, second.AlreadyResolved)
	assert.Equal(t, OutcomeSucceeded, second.Outcome)
	require.NotNil(t, second.Ticket)
	assert.Equal(t, first.Ticket.SeqNo, second.Ticket.SeqNo)
	assert.Len(t, fx.allocator.tickets, 1)
}

func TestResolveFailureThenSuccessOverrides(t *testing.T) {
	fx := newReconcilerFixture(t)

	evt := successEvent(fx, ChannelRedirectPost)
	evt.ResultCode = 49 // gateway decline

	res, err := fx.rc.Resolve(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Nil(t, res.Ticket)
	assert.Equal(t, booking.StatusAwaitingPayment, fx.bookings.appts[fx.apptID].Status)

	// a later genuine success still lands
	res, err = fx.rc.Resolve(context.Background(), successEvent(fx, ChannelWebhook))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.False(t, res.AlreadyResolved)
	assert.Equal(t, booking.StatusPaid, fx.bookings.appts[fx.apptID].Status)
}

func TestResolveFailureAfterSuccessNeverDowngrades(t *testing.T) {
	fx := newReconcilerFixture(t)

	_, err := fx.rc.Resolve(context.Background(), successEvent(fx, ChannelWebhook))
	require.NoError(t, err)

	evt := successEvent(fx, ChannelRedirectGet)
	evt.ResultCode = 49

	res, err := fx.rc.Resolve(context.Background(), evt)
	require.NoError(t, err)
	assert.True(t, res.AlreadyResolved)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, OutcomeSucceeded, fx.intents.intents[fx.apptID].Outcome)
	assert.Equal(t, booking.StatusPaid, fx.bookings.appts[fx.apptID].Status)
}

func TestResolveTicketFailureStillReportsSuccess(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.allocator.fail = errors.New("counter unavailable")

	res, err := fx.rc.Resolve(context.Background(), successEvent(fx, ChannelWebhook))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Nil(t, res.Ticket)
	// the paid-without-ticket state is what the sweep worker looks for
	assert.Equal(t, booking.StatusPaid, fx.bookings.appts[fx.apptID].Status)
	assert.Empty(t, fx.allocator.tickets)
}

func TestVerifyAndResolveRejectsBadSignature(t *testing.T) {
	fx := newReconcilerFixture(t)

	params := map[string]string{
		"orderId":      fx.apptID.String(),
		"resultCode":   "0",
		"amount":       "150000",
		"transId":      "TXN-1",
		SignatureParam: "forged",
	}

	_, err := fx.rc.VerifyAndResolve(context.Background(), ChannelWebhook, params)
	assert.ErrorIs(t, err, ErrBadSignature)

	// nothing moved
	assert.Equal(t, booking.StatusAwaitingPayment, fx.bookings.appts[fx.apptID].Status)
	assert.Equal(t, OutcomePending, fx.intents.intents[fx.apptID].Outcome)
}

func TestVerifyAndResolveAcceptsSignedParams(t *testing.T) {
	fx := newReconcilerFixture(t)

	params := map[string]string{
		"orderId":    fx.apptID.String(),
		"resultCode": strconv.Itoa(ResultSuccess),
		"amount":     "150000",
		"transId":    "TXN-1",
	}
	params[SignatureParam] = SignParams(testSecret, params)

	res, err := fx.rc.VerifyAndResolve(context.Background(), ChannelWebhook, params)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	require.NotNil(t, res.Ticket)
}

func TestConfirmCashCreatesIntentOnDemand(t *testing.T) {
	fx := newReconcilerFixture(t)
	delete(fx.intents.intents, fx.apptID) // walk-in: no gateway session ever opened

	res, err := fx.rc.ConfirmCash(context.Background(), fx.apptID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, booking.StatusPaid, fx.bookings.appts[fx.apptID].Status)

	// pressing the button twice returns the same ticket
	again, err := fx.rc.ConfirmCash(context.Background(), fx.apptID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyResolved)
	assert.Equal(t, res.Ticket.SeqNo, again.Ticket.SeqNo)
}

func TestResolveUnknownAppointment(t *testing.T) {
	fx := newReconcilerFixture(t)

	evt := successEvent(fx, ChannelWebhook)
	evt.AppointmentID = uuid.New()

	_, err := fx.rc.Resolve(context.Background(), evt)
	assert.ErrorIs(t, err, booking.ErrAppointmentNotFound)
}

func TestEventFromParamsRejectsMalformedInput(t *testing.T) {
	_, err := EventFromParams(ChannelWebhook, map[string]string{"orderId": "not-a-uuid", "resultCode": "0"})
	assert.ErrorIs(t, err, ErrBadEvent)

	_, err = EventFromParams(ChannelWebhook, map[string]string{"orderId": uuid.NewString(), "resultCode": "zero"})
	assert.ErrorIs(t, err, ErrBadEvent)
}
