package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bisman/telemetry/internal/auth"
)

func TestInstrument_RecordsCompletedRequest(t *testing.T) {
	store := newTestStore()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	h := Instrument(store)(inner)

	req := httptest.NewRequest("GET", "/users/42", nil)
	req.Header.Set("User-Agent", "dashboard/1.0")
	req = req.WithContext(auth.WithPrincipal(req.Context(),
		auth.Principal{Role: auth.RoleTenant, TenantID: "acme"}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	m := store.HTTPMetrics(time.Minute)
	if m.TotalRequests != 1 || m.TotalErrors != 1 {
		t.Errorf("metrics: got %d/%d, want 1/1", m.TotalRequests, m.TotalErrors)
	}
	if len(m.TopPaths) != 1 || m.TopPaths[0].Path != "/users/:id" {
		t.Errorf("TopPaths: %+v", m.TopPaths)
	}
	if m.RecentErrors[0].UserAgent != "dashboard/1.0" {
		t.Errorf("user agent: got %q", m.RecentErrors[0].UserAgent)
	}

	sum, ok := store.TenantMetric("acme")
	if !ok || sum.Errors != 1 {
		t.Errorf("tenant aggregate: %+v ok=%v", sum, ok)
	}
}

func TestInstrument_DefaultStatus200(t *testing.T) {
	store := newTestStore()

	// Handler writes a body without an explicit WriteHeader.
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	h := Instrument(store)(inner)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

	m := store.HTTPMetrics(time.Minute)
	if m.TotalRequests != 1 || m.TotalErrors != 0 {
		t.Errorf("metrics: got %d/%d, want 1/0", m.TotalRequests, m.TotalErrors)
	}
}

func TestInstrument_SkipsProbePaths(t *testing.T) {
	store := newTestStore()
	h := Instrument(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if m := store.HTTPMetrics(time.Minute); m.TotalRequests != 0 {
		t.Errorf("probe paths recorded: %d requests", m.TotalRequests)
	}
}

func TestInstrument_UnknownTenantFallback(t *testing.T) {
	store := newTestStore()
	h := Instrument(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	// No principal in context.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))

	m := store.HTTPMetrics(time.Minute)
	if m.RecentErrors[0].TenantID != "unknown" {
		t.Errorf("tenant: got %q, want unknown", m.RecentErrors[0].TenantID)
	}
	// The sentinel never creates a tenant aggregate.
	if n := len(store.TenantMetrics()); n != 0 {
		t.Errorf("tenants: got %d, want 0", n)
	}
}
