package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bisman/telemetry/internal/config"
	"github.com/bisman/telemetry/internal/metrics"
)

func newMemoryAt(now *time.Time) *memoryLimiter {
	return &memoryLimiter{
		entries: make(map[string]windowState),
		now:     func() time.Time { return *now },
		stopCh:  make(chan struct{}),
	}
}

func TestMemoryLimiter_EnforcesLimit(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)

	for i := 0; i < 3; i++ {
		if d := l.Allow("ip:1.2.3.4", 3, time.Minute); !d.Allowed {
			t.Fatalf("request %d: denied, want allowed", i+1)
		}
	}
	d := l.Allow("ip:1.2.3.4", 3, time.Minute)
	if d.Allowed {
		t.Error("4th request: allowed, want denied")
	}
	if d.Count != 3 {
		t.Errorf("Count: got %d, want 3", d.Count)
	}
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)

	for i := 0; i < 3; i++ {
		l.Allow("k", 3, time.Minute)
	}
	if d := l.Allow("k", 3, time.Minute); d.Allowed {
		t.Fatal("over limit: allowed, want denied")
	}

	now = now.Add(61 * time.Second)
	if d := l.Allow("k", 3, time.Minute); !d.Allowed || d.Count != 1 {
		t.Errorf("after window: got %+v, want allowed with count 1", d)
	}
}

func TestMemoryLimiter_KeysIndependent(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)

	l.Allow("a", 1, time.Minute)
	if d := l.Allow("a", 1, time.Minute); d.Allowed {
		t.Error("key a over limit: allowed")
	}
	if d := l.Allow("b", 1, time.Minute); !d.Allowed {
		t.Error("key b first request: denied")
	}
}

func TestMemoryLimiter_ZeroLimitDisabled(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)
	for i := 0; i < 10; i++ {
		if d := l.Allow("k", 0, time.Minute); !d.Allowed {
			t.Fatal("limit 0 must disable the check")
		}
	}
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)

	l.Allow("stale", 5, time.Minute)
	l.cleanup(now.Add(2 * time.Minute))

	if _, ok := l.entries["stale"]; ok {
		t.Error("cleanup: expired entry survived")
	}
}

func TestMiddleware_RejectsAndRecords(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)
	store := metrics.New(config.DefaultThresholds())

	h := Middleware(l, 2, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/monitoring/summary", nil)
		req.RemoteAddr = "10.1.1.1:5000"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/monitoring/summary", nil)
	req.RemoteAddr = "10.1.1.1:5000"
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if n := store.RateLimitHitCount(time.Minute); n != 1 {
		t.Errorf("recorded hits: got %d, want 1", n)
	}
}

func TestMiddleware_SeparateClients(t *testing.T) {
	now := time.Now()
	l := newMemoryAt(&now)
	store := metrics.New(config.DefaultThresholds())

	h := Middleware(l, 1, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/monitoring/summary", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("client %s: got %d, want 200", addr, rec.Code)
		}
	}
}
