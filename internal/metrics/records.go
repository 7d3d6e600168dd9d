package metrics

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"
)

// Timestamps throughout the package are Unix epoch milliseconds — the unit
// the dashboards and the original wire format use.

// ConnectionError is one recorded database connection failure.
type ConnectionError struct {
	Timestamp int64             `json:"timestamp"`
	Message   string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// QueryDuration is one recorded database query timing.
type QueryDuration struct {
	Timestamp  int64             `json:"timestamp"`
	DurationMs float64           `json:"duration"`
	Label      string            `json:"query"`
	Context    map[string]string `json:"context,omitempty"`
}

// RequestError is one 5xx response kept in the bounded recent-errors ring.
type RequestError struct {
	Timestamp  int64   `json:"timestamp"`
	Path       string  `json:"path"`
	Status     int     `json:"status"`
	Method     string  `json:"method"`
	TenantID   string  `json:"tenantId"`
	DurationMs float64 `json:"duration"`
	UserAgent  string  `json:"userAgent,omitempty"`
}

// RateLimitHit is one recorded rate-limit rejection. The client IP is one-way
// hashed before it reaches the store — the raw address is never retained.
type RateLimitHit struct {
	Timestamp int64  `json:"timestamp"`
	HashedIP  string `json:"ip"`
	Path      string `json:"path"`
	TenantID  string `json:"tenantId"`
}

// Sample is one timestamped scalar reading (CPU percent, scheduler lag).
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// MemorySample is one host memory reading.
type MemorySample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"` // used percent
	Total     uint64  `json:"total"`
	Used      uint64  `json:"used"`
	Free      uint64  `json:"free"`
}

// BackupFailure is one failed backup run kept in the failure log.
type BackupFailure struct {
	Timestamp int64          `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// SentryIssue is one issue-tracker signal kept in the bounded issue ring.
type SentryIssue struct {
	Timestamp int64  `json:"timestamp"`
	IssueID   string `json:"issueId"`
	Title     string `json:"title"`
	Level     string `json:"level"`
	Count     int    `json:"count"`
}

// RequestInfo carries one completed HTTP request/response pair into the
// recorder. The instrumentation middleware builds it after the response is
// finalized.
type RequestInfo struct {
	Method    string
	Path      string
	Status    int
	TenantID  string
	UserAgent string
	Duration  time.Duration
}

// TenantActivity is one increment applied to a tenant's lifetime aggregate.
type TenantActivity struct {
	Requests  int64
	Errors    int64
	Duration  time.Duration
	Bandwidth int64
}

// requestSample backs the windowed request totals. Retained under the
// medium-term window; per-path lifetime aggregates are kept separately.
type requestSample struct {
	ts         int64
	status     int
	durationMs float64
}

// pathAggregate is the lifetime per-path aggregate. Never pruned.
type pathAggregate struct {
	count       int64
	errors      int64
	totalMs     float64
	statusCodes map[int]int64
}

// tenantAggregate is the lifetime per-tenant aggregate. Never pruned.
type tenantAggregate struct {
	requests     int64
	errors       int64
	totalMs      float64
	bandwidth    int64
	lastActivity int64
}

var (
	uuidSegment    = regexp.MustCompile(`(?i)/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	numericSegment = regexp.MustCompile(`/[0-9]+`)
)

// normalizePath collapses identifier-like path segments so /users/42 and
// /users/7 aggregate under the same key.
func normalizePath(path string) string {
	path = uuidSegment.ReplaceAllString(path, "/:id")
	return numericSegment.ReplaceAllString(path, "/:id")
}

// hashIP one-way hashes a client address for storage.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:12]
}

// truncate bounds free-form strings (query labels, user agents) before storage.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
