package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvailabilityMetrics exposes counters/histograms for availability queries.
type AvailabilityMetrics struct {
	queriesTotal      *prometheus.CounterVec
	queryLatency      *prometheus.HistogramVec
	appointmentFetch  *prometheus.CounterVec
	cacheLookupsTotal *prometheus.CounterVec
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Total availability queries by operation and outcome",
		}, []string{"operation", "outcome"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "availability",
			Name:      "query_duration_seconds",
			Help:      "Latency of availability queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		appointmentFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "availability",
			Name:      "appointment_fetches_total",
			Help:      "Appointment ledger calls issued while walking date ranges",
		}, []string{"mode"}),
		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "availability",
			Name:      "appointment_cache_lookups_total",
			Help:      "Appointment cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.queryLatency, m.appointmentFetch, m.cacheLookupsTotal)
	return m
}

func (m *AvailabilityMetrics) ObserveQuery(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(operation, outcome).Inc()
	m.queryLatency.WithLabelValues(operation).Observe(seconds)
}

// ObserveAppointmentFetch counts one ledger call; mode is "day" or "range".
func (m *AvailabilityMetrics) ObserveAppointmentFetch(mode string) {
	if m == nil {
		return
	}
	m.appointmentFetch.WithLabelValues(mode).Inc()
}

func (m *AvailabilityMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(label).Inc()
}
