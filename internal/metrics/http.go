package metrics

import (
	"math"
	"sort"
	"time"
)

// HTTPMetrics is the windowed HTTP summary returned by (*Store).HTTPMetrics.
//
// TotalRequests, TotalErrors, ErrorRate, AvgResponseTimeMs and RateLimitHits
// cover the requested window. TopPaths and ErrorsByStatus are lifetime
// aggregates — they are never windowed and never pruned.
type HTTPMetrics struct {
	TotalRequests     int64          `json:"totalRequests"`
	TotalErrors       int64          `json:"totalErrors"`
	ErrorRate         float64        `json:"errorRate"`
	AvgResponseTimeMs float64        `json:"avgResponseTime"`
	RateLimitHits     int            `json:"rateLimitHits"`
	RecentErrors      []RequestError `json:"recentErrors"`
	TopPaths          []PathStats    `json:"topPaths"`
	ErrorsByStatus    map[int]int64  `json:"errorsByStatus"`
}

// PathStats is one normalized path's lifetime aggregate.
type PathStats struct {
	Path          string  `json:"path"`
	Count         int64   `json:"count"`
	Errors        int64   `json:"errors"`
	ErrorRate     float64 `json:"errorRate"`
	AvgDurationMs float64 `json:"avgDuration"`
}

// RecordHTTPRequest records one completed request: the lifetime path
// aggregate, the windowed request log, the per-tenant aggregate, and — for
// 5xx responses — the error histogram and the bounded recent-errors ring.
// A 5xx response triggers the error-rate alert check.
func (s *Store) RecordHTTPRequest(info RequestInfo) {
	now := s.nowMs()
	path := normalizePath(info.Path)
	durMs := float64(info.Duration) / float64(time.Millisecond)
	tenant := info.TenantID
	if tenant == "" {
		tenant = unknownTenant
	}
	isError := info.Status >= 500

	s.mu.Lock()

	agg := s.http.paths[path]
	if agg == nil {
		agg = &pathAggregate{statusCodes: make(map[int]int64)}
		s.http.paths[path] = agg
	}
	agg.count++
	agg.totalMs += durMs
	agg.statusCodes[info.Status]++

	s.http.requestLog = append(s.http.requestLog, requestSample{
		ts:         now,
		status:     info.Status,
		durationMs: durMs,
	})

	if isError {
		agg.errors++
		s.http.errorsByStatus[info.Status]++
		s.http.recentErrors = append(s.http.recentErrors, RequestError{
			Timestamp:  now,
			Path:       path,
			Status:     info.Status,
			Method:     info.Method,
			TenantID:   tenant,
			DurationMs: durMs,
			UserAgent:  truncate(info.UserAgent, userAgentMax),
		})
		if len(s.http.recentErrors) > recentErrorCap {
			s.http.recentErrors = s.http.recentErrors[1:]
		}
	}

	s.recordTenantLocked(tenant, TenantActivity{
		Requests: 1,
		Errors:   boolToCount(isError),
		Duration: info.Duration,
	}, now)

	s.mu.Unlock()

	if isError && s.hook != nil {
		s.hook.ServerErrorRecorded()
	}
}

// RecordRateLimitHit records one rate-limit rejection and triggers the spike
// alert check. ip is hashed before storage.
func (s *Store) RecordRateLimitHit(ip, path, tenantID string) {
	if tenantID == "" {
		tenantID = unknownTenant
	}
	hit := RateLimitHit{
		Timestamp: s.nowMs(),
		HashedIP:  hashIP(ip),
		Path:      path,
		TenantID:  tenantID,
	}

	s.mu.Lock()
	s.http.rateLimitHits = append(s.http.rateLimitHits, hit)
	s.mu.Unlock()

	if s.hook != nil {
		s.hook.RateLimitHitRecorded()
	}
}

// RateLimitHitCount returns the number of rate-limit hits in the trailing
// window.
func (s *Store) RateLimitHitCount(window time.Duration) int {
	cut := cutoff(s.now(), window)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.http.rateLimitHits {
		if h.Timestamp > cut {
			n++
		}
	}
	return n
}

// HTTPMetrics returns the HTTP summary for the trailing window. A
// non-positive window selects the default (5 minutes). An empty store yields
// zeros, never a division error.
func (s *Store) HTTPMetrics(window time.Duration) HTTPMetrics {
	if window <= 0 {
		window = DefaultHTTPWindow
	}
	cut := cutoff(s.now(), window)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		requests int64
		errs     int64
		totalMs  float64
	)
	for _, r := range s.http.requestLog {
		if r.ts <= cut {
			continue
		}
		requests++
		totalMs += r.durationMs
		if r.status >= 500 {
			errs++
		}
	}

	m := HTTPMetrics{
		TotalRequests:  requests,
		TotalErrors:    errs,
		ErrorsByStatus: make(map[int]int64, len(s.http.errorsByStatus)),
	}
	if requests > 0 {
		m.ErrorRate = float64(errs) / float64(requests)
		m.AvgResponseTimeMs = math.Round(totalMs / float64(requests))
	}

	for _, h := range s.http.rateLimitHits {
		if h.Timestamp > cut {
			m.RateLimitHits++
		}
	}

	var recent []RequestError
	for _, e := range s.http.recentErrors {
		if e.Timestamp > cut {
			recent = append(recent, e)
		}
	}
	m.RecentErrors = lastN(recent, 20)

	m.TopPaths = topPathsLocked(s.http.paths, 10)
	for status, n := range s.http.errorsByStatus {
		m.ErrorsByStatus[status] = n
	}
	return m
}

// topPathsLocked ranks lifetime path aggregates by request count.
// Caller holds the store lock.
func topPathsLocked(paths map[string]*pathAggregate, n int) []PathStats {
	out := make([]PathStats, 0, len(paths))
	for path, agg := range paths {
		st := PathStats{
			Path:   path,
			Count:  agg.count,
			Errors: agg.errors,
		}
		if agg.count > 0 {
			st.ErrorRate = float64(agg.errors) / float64(agg.count)
			st.AvgDurationMs = math.Round(agg.totalMs / float64(agg.count))
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func boolToCount(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
