package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/barber-availability/internal/availability"
	"github.com/wolfman30/barber-availability/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/barber-availability/internal/http/middleware"
	"github.com/wolfman30/barber-availability/internal/observability/metrics"
	"github.com/wolfman30/barber-availability/internal/store"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	mem := store.NewMemoryStore()
	mem.PutBusiness(availability.Business{ID: "b1", Name: "Fade Factory"})
	mem.PutService(availability.Service{ID: "cut", BusinessID: "b1", Name: "Haircut", Duration: 30})
	err := mem.PutStaffMember(availability.StaffMember{
		ID: "s1", BusinessID: "b1", Name: "Sam",
		Availability: availability.WeeklyAvailability{{Weekday: time.Monday, Ranges: []availability.TimeRange{
			{Start: availability.MustParseTimeOfDay("09:00"), End: availability.MustParseTimeOfDay("10:00")},
		}}},
	})
	if err != nil {
		t.Fatalf("put staff: %v", err)
	}
	mem.PutAppointment("b1", availability.Appointment{
		ID: "a1", StaffID: "s1", Date: civil.Date{Year: 2024, Month: time.June, Day: 3},
		InitialTime: availability.MustParseTimeOfDay("09:00"), FinalTime: availability.MustParseTimeOfDay("09:30"),
	})

	reg := prometheus.NewRegistry()
	m := metrics.NewAvailabilityMetrics(reg)
	engine := availability.NewEngine(mem, mem, mem, availability.WithLogger(logger), availability.WithMetrics(m))

	return New(&Config{
		Logger: logger,
		AvailabilityHandler: handlers.NewAvailabilityHandler(handlers.AvailabilityHandlerConfig{
			Engine:       engine,
			Logger:       logger,
			MaxRangeDays: 31,
		}),
		BusinessHandler:    handlers.NewBusinessHandler(mem, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterStaffAvailability(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/businesses/b1/services/cut/staff/s1/availability?initialDate=2024-06-03&finalDate=2024-06-04", nil)
	req.Header.Set("Origin", "https://shop.example")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://shop.example" {
		t.Fatalf("expected CORS header")
	}

	var resp struct {
		FreeSlots []availability.DaySlots `json:"freeSlots"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.FreeSlots) != 2 {
		t.Fatalf("expected 2 days, got %d", len(resp.FreeSlots))
	}
	if got := resp.FreeSlots[0].Slots; len(got) != 1 || got[0].Start.String() != "09:30" {
		t.Fatalf("unexpected monday slots %+v", got)
	}
	if len(resp.FreeSlots[1].Slots) != 0 {
		t.Fatalf("expected no tuesday slots")
	}
}

func TestRouterRoutesBusinessEndpoints(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/businesses/b1", http.StatusOK},
		{"/businesses/b1/services", http.StatusOK},
		{"/businesses/b1/staff", http.StatusOK},
		{"/businesses/nope", http.StatusNotFound},
		{"/businesses/b1/services/missing/availability?initialDate=2024-06-03&finalDate=2024-06-03", http.StatusNotFound},
		{"/businesses/b1/services/cut/staff/ghost/availability?initialDate=2024-06-03&finalDate=2024-06-03", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.status, rr.Code)
		}
	}
}

func TestRouterServesMetrics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/businesses/b1/services/cut/availability?initialDate=2024-06-03&finalDate=2024-06-03", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "booking_availability_queries_total") {
		t.Fatalf("expected availability metrics in scrape")
	}
}

func TestRouterRateLimitsBusinessRoutes(t *testing.T) {
	logger := logging.Default()
	mem := store.NewMemoryStore()
	mem.PutBusiness(availability.Business{ID: "b1", Name: "Fade Factory"})
	engine := availability.NewEngine(mem, mem, mem)

	router := New(&Config{
		Logger: logger,
		AvailabilityHandler: handlers.NewAvailabilityHandler(handlers.AvailabilityHandlerConfig{
			Engine: engine,
			Logger: logger,
		}),
		BusinessHandler: handlers.NewBusinessHandler(mem, logger),
		RateLimiter:     httpmiddleware.NewRateLimiter(0.001, 1),
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/businesses/b1", nil)
		req.RemoteAddr = "198.51.100.4:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	codes = append(codes, health.Code)

	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, codes)
		}
	}
}

func TestRouterServesDocsOutsideRateLimit(t *testing.T) {
	logger := logging.Default()
	mem := store.NewMemoryStore()
	docsHandler, err := handlers.NewDocsHandler([]byte(`{"openapi":"3.0.3","paths":{}}`))
	if err != nil {
		t.Fatalf("docs handler: %v", err)
	}

	router := New(&Config{
		Logger: logger,
		AvailabilityHandler: handlers.NewAvailabilityHandler(handlers.AvailabilityHandlerConfig{
			Engine: availability.NewEngine(mem, mem, mem),
			Logger: logger,
		}),
		BusinessHandler: handlers.NewBusinessHandler(mem, logger),
		DocsHandler:     docsHandler,
		RateLimiter:     httpmiddleware.NewRateLimiter(0.001, 1),
	})

	for _, path := range []string{"/docs", "/docs/openapi.json", "/docs", "/docs/openapi.json"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.9:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}
