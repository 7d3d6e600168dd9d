package metrics

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/bisman/telemetry/internal/config"
)

// Retention tiers. High-frequency samples are short-lived; error logs and
// rate-limit hits live an hour; backup failure history a day.
const (
	ShortTerm  = 5 * time.Minute
	MediumTerm = time.Hour
	LongTerm   = 24 * time.Hour
)

// Default query windows per category.
const (
	DefaultHTTPWindow   = 5 * time.Minute
	DefaultSystemWindow = 5 * time.Minute
	DefaultSentryWindow = time.Hour
)

const (
	sweepInterval  = 5 * time.Minute
	recentErrorCap = 100
	sentryIssueCap = 50
	queryLabelMax  = 100
	userAgentMax   = 100
	slowQueryMs    = 500
	unknownTenant  = "unknown"
)

// Hook receives a notification after specific recordings so the alert engine
// can evaluate thresholds synchronously. Implementations are invoked outside
// the store lock and may issue aggregation queries, but must not block.
type Hook interface {
	ConnectionErrorRecorded()
	ServerErrorRecorded()
	RateLimitHitRecorded()
	SystemSampled(cpuPercent, memPercent float64)
	BackupFailureRecorded()
}

// Store owns all mutable telemetry state, grouped by category. All methods
// are safe for concurrent use; a single mutex serializes mutations, and
// queries copy out under the same lock.
type Store struct {
	mu  sync.Mutex
	now func() time.Time // injectable for deterministic tests

	start      time.Time
	hostname   string
	platform   string
	thresholds config.Thresholds
	hook       Hook

	db      dbState
	http    httpState
	system  systemState
	backup  backupState
	tenants map[string]*tenantAggregate
	sentry  sentryState
}

type dbState struct {
	connectionErrors []ConnectionError
	queryDurations   []QueryDuration
	activeConns      int
	poolSize         int
	lastHealthCheck  int64
	healthy          bool
}

type httpState struct {
	paths          map[string]*pathAggregate
	requestLog     []requestSample
	errorsByStatus map[int]int64
	rateLimitHits  []RateLimitHit
	recentErrors   []RequestError // bounded ring, oldest dropped
}

type systemState struct {
	cpu    []Sample
	memory []MemorySample
	lag    []Sample
}

type backupState struct {
	lastRun     int64
	lastSuccess int64
	lastFailure int64
	failures    []BackupFailure
}

type sentryState struct {
	issues     []SentryIssue // bounded ring, oldest dropped
	unresolved int
}

// New creates an empty Store with the given alert thresholds. The store
// starts healthy; the first recorded connection error flips it.
func New(th config.Thresholds) *Store {
	host, _ := os.Hostname()
	return &Store{
		now:        time.Now,
		start:      time.Now(),
		hostname:   host,
		platform:   runtime.GOOS,
		thresholds: th,
		db:         dbState{healthy: true},
		http: httpState{
			paths:          make(map[string]*pathAggregate),
			errorsByStatus: make(map[int]int64),
		},
		tenants: make(map[string]*tenantAggregate),
	}
}

// SetHook installs the alert evaluator. Must be called before the store is
// shared across goroutines; recordings made without a hook skip evaluation.
func (s *Store) SetHook(h Hook) { s.hook = h }

// Thresholds returns the threshold configuration the store was built with.
func (s *Store) Thresholds() config.Thresholds { return s.thresholds }

// Uptime returns how long the store (and so the process) has been running.
func (s *Store) Uptime() time.Duration { return s.now().Sub(s.start) }

func (s *Store) nowMs() int64 { return s.now().UnixMilli() }

// cutoff returns the epoch-ms lower bound for a sliding window ending now.
func cutoff(now time.Time, window time.Duration) int64 {
	return now.Add(-window).UnixMilli()
}

// Sweep discards records older than their category's retention window and
// returns the number removed. Lifetime aggregates (paths, tenants, status
// histograms) are never pruned. Safe to run concurrently with recordings and
// idempotent — a second immediate sweep removes nothing.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	short := cutoff(now, ShortTerm)
	medium := cutoff(now, MediumTerm)
	long := cutoff(now, LongTerm)

	removed := 0
	s.db.connectionErrors, removed = pruneConnErrors(s.db.connectionErrors, medium, removed)
	s.db.queryDurations, removed = pruneQueries(s.db.queryDurations, short, removed)
	s.http.requestLog, removed = pruneRequests(s.http.requestLog, medium, removed)
	s.http.rateLimitHits, removed = pruneRateLimits(s.http.rateLimitHits, medium, removed)
	s.system.cpu, removed = pruneSamples(s.system.cpu, short, removed)
	s.system.memory, removed = pruneMemory(s.system.memory, short, removed)
	s.system.lag, removed = pruneSamples(s.system.lag, short, removed)
	s.backup.failures, removed = pruneFailures(s.backup.failures, long, removed)
	return removed
}

// RunSweeper runs the periodic retention sweep until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Sweep(now); n > 0 {
				slog.Debug("metrics: swept expired records", "count", n)
			}
		}
	}
}

// The prune helpers filter in place to avoid reallocating on every sweep.

func pruneConnErrors(in []ConnectionError, cut int64, removed int) ([]ConnectionError, int) {
	out := in[:0]
	for _, r := range in {
		if r.Timestamp > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}

func pruneQueries(in []QueryDuration, cut int64, removed int) ([]QueryDuration, int) {
	out := in[:0]
	for _, r := range in {
		if r.Timestamp > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}

func pruneRequests(in []requestSample, cut int64, removed int) ([]requestSample, int) {
	out := in[:0]
	for _, r := range in {
		if r.ts > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}

func pruneRateLimits(in []RateLimitHit, cut int64, removed int) ([]RateLimitHit, int) {
	out := in[:0]
	for _, r := range in {
		if r.Timestamp > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}

func pruneSamples(in []Sample, cut int64, removed int) ([]Sample, int) {
	out := in[:0]
	for _, r := range in {
		if r.Timestamp > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}

func pruneMemory(in []MemorySample, cut int64, removed int) ([]MemorySample, int) {
	out := in[:0]
	for _, r := range in {
		if r.Timestamp > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}

func pruneFailures(in []BackupFailure, cut int64, removed int) ([]BackupFailure, int) {
	out := in[:0]
	for _, r := range in {
		if r.Timestamp > cut {
			out = append(out, r)
		} else {
			removed++
		}
	}
	return out, removed
}
