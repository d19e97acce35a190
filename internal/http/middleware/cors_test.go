package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/businesses/b1/services", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()

	CORS([]string{"https://example.com"})(okHandler(&called)).ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler to run, called=%v code=%d", called, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
		t.Fatalf("expected request id to be exposed, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatalf("method list belongs on preflight responses only")
	}
}

func TestCORSIgnoresRequestsWithoutOrigin(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	CORS([]string{"*"})(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Fatalf("expected handler to run")
	}
	if len(rec.Header().Values("Vary")) != 0 || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected no CORS headers, got %v", rec.Header())
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/businesses/b1/services", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()

	CORS([]string{"https://example.com"})(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("simple requests still reach the handler; the browser enforces the missing header")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/businesses/b1/services", nil)
	req.Header.Set("Origin", "https://random.example")
	rec := httptest.NewRecorder()

	CORS([]string{"*"})(okHandler(&called)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		method      string
		wantStatus  int
		wantOrigin  string
		wantMethods string
	}{
		{"allowed", "https://example.com", "GET", http.StatusNoContent, "https://example.com", "GET, OPTIONS"},
		{"lowercase method", "https://example.com", "get", http.StatusNoContent, "https://example.com", "GET, OPTIONS"},
		{"unknown origin", "https://unknown.example", "GET", http.StatusForbidden, "", ""},
		{"unserved method", "https://example.com", "DELETE", http.StatusMethodNotAllowed, "https://example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodOptions, "/businesses/b1/services/cut/availability", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", tt.method)
			rec := httptest.NewRecorder()

			CORS([]string{" ", "https://example.com"}, http.MethodGet)(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Fatalf("preflight must not reach the handler")
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("expected allow origin %q, got %q", tt.wantOrigin, got)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Fatalf("expected allow methods %q, got %q", tt.wantMethods, got)
			}
		})
	}
}

func TestCORSPolicyDeduplicatesMethods(t *testing.T) {
	p := newCORSPolicy(nil, []string{"get", "GET", " head ", ""})
	if p.allowList != "GET, HEAD, OPTIONS" {
		t.Fatalf("unexpected allow list %q", p.allowList)
	}
	if p.allowsOrigin("https://example.com") {
		t.Fatalf("empty allowlist must reject every origin")
	}
}
