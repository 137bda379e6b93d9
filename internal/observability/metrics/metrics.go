package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the appointment workflow.
type BookingMetrics struct {
	appointmentsTotal  *prometheus.CounterVec
	allocationsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	confirmLatency     *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment workflow transitions by outcome",
		}, []string{"action", "status"}),
		allocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "number_allocations_total",
			Help:      "Appointment number allocations by backend",
		}, []string{"backend", "status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Patient notifications by kind and outcome",
		}, []string{"kind", "status"}),
		confirmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "operation_latency_seconds",
			Help:      "Latency of appointment workflow operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsTotal, m.allocationsTotal, m.notificationsTotal, m.confirmLatency)
	return m
}

func (m *BookingMetrics) ObserveTransition(action, status string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(action, status).Inc()
}

func (m *BookingMetrics) ObserveAllocation(backend string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.allocationsTotal.WithLabelValues(backend, status).Inc()
}

func (m *BookingMetrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *BookingMetrics) ObserveLatency(action string, seconds float64) {
	if m == nil {
		return
	}
	m.confirmLatency.WithLabelValues(action).Observe(seconds)
}
