package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking and payment flows.
type BookingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	paymentEvents  *prometheus.CounterVec
	ticketsIssued  prometheus.Counter
	resolveLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Appointment creation attempts by outcome",
		}, []string{"outcome"}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "payment",
			Name:      "events_total",
			Help:      "Gateway confirmation events by channel and result",
		}, []string{"channel", "result"}),
		ticketsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "ticket",
			Name:      "issued_total",
			Help:      "Queue tickets issued",
		}),
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "payment",
			Name:      "resolve_latency_seconds",
			Help:      "Latency of payment event resolution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.paymentEvents, m.ticketsIssued, m.resolveLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObservePaymentEvent(channel, result string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(channel, result).Inc()
}

func (m *BookingMetrics) ObserveTicketIssued() {
	if m == nil {
		return
	}
	m.ticketsIssued.Inc()
}

func (m *BookingMetrics) ObserveResolveLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.WithLabelValues(channel).Observe(seconds)
}
