package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestAvailabilityMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAvailabilityMetrics(reg)
	m.ObserveQuery("single_staff", "ok", 0.25)
	m.ObserveQuery("single_staff", "not_found", 0.01)
	m.ObserveAppointmentFetch("day")
	m.ObserveAppointmentFetch("day")
	m.ObserveCacheLookup(true)

	if got := testutil.ToFloat64(m.queriesTotal.WithLabelValues("single_staff", "ok")); got != 1 {
		t.Fatalf("expected 1 ok query, got %v", got)
	}
	if got := testutil.ToFloat64(m.appointmentFetch.WithLabelValues("day")); got != 2 {
		t.Fatalf("expected 2 day fetches, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}

	var sample dto.Metric
	hist, ok := m.queryLatency.WithLabelValues("single_staff").(prometheus.Histogram)
	if !ok {
		t.Fatalf("expected histogram observer")
	}
	if err := hist.Write(&sample); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if sample.GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected 2 latency samples, got %d", sample.GetHistogram().GetSampleCount())
	}
}

func TestAvailabilityMetricsDefaultRegistry(t *testing.T) {
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	defer func() { prometheus.DefaultRegisterer = prev }()

	m := NewAvailabilityMetrics(nil)
	m.ObserveAppointmentFetch("range")
}

func TestAvailabilityMetricsNilSafe(t *testing.T) {
	var m *AvailabilityMetrics
	m.ObserveQuery("multi_staff", "ok", 0.1)
	m.ObserveAppointmentFetch("day")
	m.ObserveCacheLookup(false)
}
