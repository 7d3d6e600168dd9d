package metrics

import (
	"math"
	"sort"
	"time"
)

// TenantSummary is one tenant's lifetime aggregate. ErrorRate is a 0–1
// fraction over the full process lifetime, not a windowed statistic.
type TenantSummary struct {
	TenantID          string  `json:"tenantId"`
	Requests          int64   `json:"requests"`
	Errors            int64   `json:"errors"`
	ErrorRate         float64 `json:"errorRate"`
	AvgResponseTimeMs float64 `json:"avgResponseTime"`
	Bandwidth         int64   `json:"bandwidth"`
	LastActivity      int64   `json:"lastActivity"`
}

// TenantErrorRate is one row of the error-rate ranking. ErrorRatePct is on a
// 0–100 scale.
type TenantErrorRate struct {
	TenantID     string  `json:"tenantId"`
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	ErrorRatePct float64 `json:"errorRate"`
	LastActivity int64   `json:"lastActivity"`
}

// RecordTenantActivity applies one activity increment to a tenant's lifetime
// aggregate. The "unknown" sentinel is dropped — it never creates an entry.
func (s *Store) RecordTenantActivity(tenantID string, act TenantActivity) {
	if tenantID == "" || tenantID == unknownTenant {
		return
	}
	now := s.nowMs()

	s.mu.Lock()
	s.recordTenantLocked(tenantID, act, now)
	s.mu.Unlock()
}

// recordTenantLocked applies the increment. Caller holds the store lock.
func (s *Store) recordTenantLocked(tenantID string, act TenantActivity, now int64) {
	if tenantID == "" || tenantID == unknownTenant {
		return
	}
	t := s.tenants[tenantID]
	if t == nil {
		t = &tenantAggregate{}
		s.tenants[tenantID] = t
	}
	t.requests += act.Requests
	t.errors += act.Errors
	t.totalMs += float64(act.Duration) / float64(time.Millisecond)
	t.bandwidth += act.Bandwidth
	t.lastActivity = now
}

// TenantMetric returns one tenant's summary, reporting false when the tenant
// has no recorded activity.
func (s *Store) TenantMetric(tenantID string) (TenantSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenants[tenantID]
	if t == nil {
		return TenantSummary{}, false
	}
	return tenantSummary(tenantID, t), true
}

// TenantMetrics returns all tenants sorted descending by request count.
func (s *Store) TenantMetrics() []TenantSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TenantSummary, 0, len(s.tenants))
	for id, t := range s.tenants {
		out = append(out, tenantSummary(id, t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Requests != out[j].Requests {
			return out[i].Requests > out[j].Requests
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out
}

// TenantErrorRates ranks tenants with meaningful traffic (more than 10
// lifetime requests) by error-rate percentage, highest first.
func (s *Store) TenantErrorRates() []TenantErrorRate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TenantErrorRate, 0, len(s.tenants))
	for id, t := range s.tenants {
		if t.requests <= 10 {
			continue
		}
		out = append(out, TenantErrorRate{
			TenantID:     id,
			Requests:     t.requests,
			Errors:       t.errors,
			ErrorRatePct: float64(t.errors) / float64(t.requests) * 100,
			LastActivity: t.lastActivity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ErrorRatePct != out[j].ErrorRatePct {
			return out[i].ErrorRatePct > out[j].ErrorRatePct
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out
}

// TenantProm returns the raw per-tenant counters for the Prometheus exporter,
// sorted by tenant id for deterministic output.
func (s *Store) TenantProm() []TenantSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TenantSummary, 0, len(s.tenants))
	for id, t := range s.tenants {
		out = append(out, tenantSummary(id, t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out
}

func tenantSummary(id string, t *tenantAggregate) TenantSummary {
	ts := TenantSummary{
		TenantID:     id,
		Requests:     t.requests,
		Errors:       t.errors,
		Bandwidth:    t.bandwidth,
		LastActivity: t.lastActivity,
	}
	if t.requests > 0 {
		ts.ErrorRate = float64(t.errors) / float64(t.requests)
		ts.AvgResponseTimeMs = math.Round(t.totalMs / float64(t.requests))
	}
	return ts
}
