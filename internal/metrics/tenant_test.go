package metrics

import (
	"testing"
	"time"
)

func TestRecordTenantActivity_DropsUnknown(t *testing.T) {
	s := newTestStore()
	s.RecordTenantActivity("", TenantActivity{Requests: 1})
	s.RecordTenantActivity("unknown", TenantActivity{Requests: 1})

	if n := len(s.TenantMetrics()); n != 0 {
		t.Errorf("tenants: got %d, want 0", n)
	}
}

func TestTenantMetric_Aggregates(t *testing.T) {
	s := newTestStore()
	s.RecordTenantActivity("acme", TenantActivity{Requests: 4, Errors: 1, Duration: 200 * time.Millisecond, Bandwidth: 2048})
	s.RecordTenantActivity("acme", TenantActivity{Requests: 1, Duration: 50 * time.Millisecond})

	sum, ok := s.TenantMetric("acme")
	if !ok {
		t.Fatal("TenantMetric: expected acme")
	}
	if sum.Requests != 5 || sum.Errors != 1 {
		t.Errorf("requests/errors: got %d/%d, want 5/1", sum.Requests, sum.Errors)
	}
	if sum.ErrorRate != 0.2 {
		t.Errorf("ErrorRate: got %v, want 0.2", sum.ErrorRate)
	}
	if sum.AvgResponseTimeMs != 50 {
		t.Errorf("AvgResponseTimeMs: got %v, want 50", sum.AvgResponseTimeMs)
	}
	if sum.Bandwidth != 2048 {
		t.Errorf("Bandwidth: got %d, want 2048", sum.Bandwidth)
	}
	if sum.LastActivity == 0 {
		t.Error("LastActivity: not stamped")
	}
}

func TestTenantMetric_Missing(t *testing.T) {
	s := newTestStore()
	if _, ok := s.TenantMetric("ghost"); ok {
		t.Error("TenantMetric on empty store: got ok, want false")
	}
}

func TestTenantMetrics_SortedByRequests(t *testing.T) {
	s := newTestStore()
	s.RecordTenantActivity("small", TenantActivity{Requests: 2})
	s.RecordTenantActivity("big", TenantActivity{Requests: 9})

	out := s.TenantMetrics()
	if len(out) != 2 || out[0].TenantID != "big" {
		t.Errorf("TenantMetrics order: got %+v, want big first", out)
	}
}

func TestTenantErrorRates_FiltersLowTraffic(t *testing.T) {
	s := newTestStore()
	// 10 requests exactly: below the "more than 10" bar.
	s.RecordTenantActivity("quiet", TenantActivity{Requests: 10, Errors: 10})
	s.RecordTenantActivity("noisy", TenantActivity{Requests: 20, Errors: 4})
	s.RecordTenantActivity("steady", TenantActivity{Requests: 100, Errors: 5})

	out := s.TenantErrorRates()
	if len(out) != 2 {
		t.Fatalf("TenantErrorRates: got %d rows, want 2", len(out))
	}
	if out[0].TenantID != "noisy" || out[0].ErrorRatePct != 20 {
		t.Errorf("row 0: got %+v, want noisy at 20%%", out[0])
	}
	if out[1].TenantID != "steady" || out[1].ErrorRatePct != 5 {
		t.Errorf("row 1: got %+v, want steady at 5%%", out[1])
	}
}

func TestHTTPRequest_FeedsTenantAggregate(t *testing.T) {
	s := newTestStore()
	s.RecordHTTPRequest(RequestInfo{
		Method: "GET", Path: "/api/widgets", Status: 502,
		TenantID: "acme", Duration: 40 * time.Millisecond,
	})

	sum, ok := s.TenantMetric("acme")
	if !ok {
		t.Fatal("tenant not created from request")
	}
	if sum.Requests != 1 || sum.Errors != 1 {
		t.Errorf("tenant from request: got %d/%d, want 1/1", sum.Requests, sum.Errors)
	}
}

func TestTenantProm_SortedByID(t *testing.T) {
	s := newTestStore()
	s.RecordTenantActivity("zeta", TenantActivity{Requests: 1})
	s.RecordTenantActivity("alpha", TenantActivity{Requests: 99})

	out := s.TenantProm()
	if len(out) != 2 || out[0].TenantID != "alpha" || out[1].TenantID != "zeta" {
		t.Errorf("TenantProm order: got %+v, want alphabetical", out)
	}
}
