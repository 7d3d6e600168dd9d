package metrics

import (
	"errors"
	"log/slog"
	"math"
	"time"
)

// DBHealth is the database health summary returned by (*Store).DBHealth.
// RecentErrorCount, AvgQueryDurationMs and SlowQueryCount cover the
// short-term window only.
type DBHealth struct {
	Healthy            bool              `json:"healthy"`
	LastHealthCheck    int64             `json:"lastHealthCheck"`
	ActiveConnections  int               `json:"activeConnections"`
	PoolSize           int               `json:"poolSize"`
	RecentErrorCount   int               `json:"recentErrorCount"`
	AvgQueryDurationMs float64           `json:"avgQueryDurationMs"`
	SlowQueryCount     int               `json:"slowQueryCount"`
	Errors             []ConnectionError `json:"errors"`
}

// sqlStater is satisfied by pgconn.PgError (and other drivers' error types)
// without importing the driver here.
type sqlStater interface {
	SQLState() string
}

// RecordDBConnectionError appends a connection error record, marks the
// database unhealthy, and triggers the connection-error alert check.
// Prior error records are not cleared by a later success.
func (s *Store) RecordDBConnectionError(err error, context map[string]string) {
	if err == nil {
		return
	}

	entry := ConnectionError{
		Timestamp: s.nowMs(),
		Message:   err.Error(),
		Context:   context,
	}
	var st sqlStater
	if errors.As(err, &st) {
		entry.Code = st.SQLState()
	}

	s.mu.Lock()
	s.db.connectionErrors = append(s.db.connectionErrors, entry)
	s.db.healthy = false
	s.mu.Unlock()

	slog.Error("metrics: db connection error", "err", entry.Message, "code", entry.Code)

	if s.hook != nil {
		s.hook.ConnectionErrorRecorded()
	}
}

// RecordDBConnectionSuccess marks the database healthy and stamps the check
// time.
func (s *Store) RecordDBConnectionSuccess() {
	now := s.nowMs()
	s.mu.Lock()
	s.db.healthy = true
	s.db.lastHealthCheck = now
	s.mu.Unlock()
}

// RecordDBQueryDuration appends a query timing record. The label is truncated
// to bound memory.
func (s *Store) RecordDBQueryDuration(d time.Duration, label string, context map[string]string) {
	entry := QueryDuration{
		Timestamp:  s.nowMs(),
		DurationMs: float64(d) / float64(time.Millisecond),
		Label:      truncate(label, queryLabelMax),
		Context:    context,
	}

	s.mu.Lock()
	s.db.queryDurations = append(s.db.queryDurations, entry)
	s.mu.Unlock()
}

// UpdateDBPoolStats records the current connection pool occupancy.
func (s *Store) UpdateDBPoolStats(activeConnections, poolSize int) {
	s.mu.Lock()
	s.db.activeConns = activeConnections
	s.db.poolSize = poolSize
	s.mu.Unlock()
}

// ConnectionErrorsWithin returns copies of the connection errors recorded in
// the trailing window, oldest first.
func (s *Store) ConnectionErrorsWithin(window time.Duration) []ConnectionError {
	cut := cutoff(s.now(), window)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConnectionError, 0, len(s.db.connectionErrors))
	for _, e := range s.db.connectionErrors {
		if e.Timestamp > cut {
			out = append(out, e)
		}
	}
	return out
}

// DBHealth returns the database health summary.
func (s *Store) DBHealth() DBHealth {
	cut := cutoff(s.now(), ShortTerm)

	s.mu.Lock()
	defer s.mu.Unlock()

	var recent []ConnectionError
	for _, e := range s.db.connectionErrors {
		if e.Timestamp > cut {
			recent = append(recent, e)
		}
	}

	var total float64
	queries, slow := 0, 0
	for _, q := range s.db.queryDurations {
		if q.Timestamp <= cut {
			continue
		}
		queries++
		total += q.DurationMs
		if q.DurationMs > slowQueryMs {
			slow++
		}
	}

	var avg float64
	if queries > 0 {
		avg = math.Round(total / float64(queries))
	}

	h := DBHealth{
		Healthy:            s.db.healthy,
		LastHealthCheck:    s.db.lastHealthCheck,
		ActiveConnections:  s.db.activeConns,
		PoolSize:           s.db.poolSize,
		RecentErrorCount:   len(recent),
		AvgQueryDurationMs: avg,
		SlowQueryCount:     slow,
		Errors:             lastN(recent, 10),
	}
	return h
}

// lastN copies the trailing n elements of in (all of them if fewer).
func lastN[T any](in []T, n int) []T {
	if len(in) > n {
		in = in[len(in)-n:]
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
