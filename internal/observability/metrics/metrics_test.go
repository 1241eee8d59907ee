package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilReceiverIsSafe(t *testing.T) {
	var m *BookingMetrics

	// all observation methods must be no-ops on a nil receiver
	m.ObserveBooking("created")
	m.ObservePaymentEvent("webhook", "succeeded")
	m.ObserveTicketIssued()
	m.ObserveResolveLatency("webhook", 0.05)
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("rejected")
	m.ObservePaymentEvent("webhook", "duplicate")
	m.ObserveTicketIssued()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.bookingsTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.bookingsTotal.WithLabelValues("rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.paymentEvents.WithLabelValues("webhook", "duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ticketsIssued))
}
