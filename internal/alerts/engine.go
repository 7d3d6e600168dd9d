package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bisman/telemetry/internal/config"
	"github.com/bisman/telemetry/internal/metrics"
)

// evalWindow is the trailing window every recording-triggered evaluator
// inspects.
const evalWindow = time.Minute

// connErrorFloor is the number of connection errors within evalWindow that
// fires the critical database alert.
const connErrorFloor = 3

// Engine evaluates alert thresholds against the store's windowed statistics.
// It implements metrics.Hook, so the store invokes it synchronously after
// each relevant recording; breaches are pushed to the Publisher.
//
// The engine is stateless by design: there is no debounce, and a sustained
// breach re-fires on every triggering recording.
type Engine struct {
	store *metrics.Store
	th    config.Thresholds
	pub   Publisher
	now   func() time.Time // injectable for deterministic tests
}

// NewEngine creates an Engine reading from store and publishing to pub.
func NewEngine(store *metrics.Store, th config.Thresholds, pub Publisher) *Engine {
	return &Engine{
		store: store,
		th:    th,
		pub:   pub,
		now:   time.Now,
	}
}

var _ metrics.Hook = (*Engine)(nil)

// ConnectionErrorRecorded fires the critical database alert once three or
// more connection errors have landed within the trailing minute.
func (e *Engine) ConnectionErrorRecorded() {
	recent := e.store.ConnectionErrorsWithin(evalWindow)
	n := len(recent)
	if n < connErrorFloor {
		return
	}
	e.emit(Alert{
		Type:     TypeDBConnectionErrors,
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("%d database connection errors in the last minute", n),
		Details:  recent[n-connErrorFloor:],
	})
}

// ServerErrorRecorded fires the critical 5xx alert when the error rate over
// the trailing minute exceeds the configured fraction.
func (e *Engine) ServerErrorRecorded() {
	m := e.store.HTTPMetrics(evalWindow)
	if m.TotalRequests == 0 || m.ErrorRate <= e.th.HTTP5xxRate {
		return
	}
	recent := m.RecentErrors
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	e.emit(Alert{
		Type:     TypeHigh5xxRate,
		Severity: SeverityCritical,
		Message: fmt.Sprintf("HTTP 5xx error rate is %.1f%% (threshold: %g%%)",
			m.ErrorRate*100, e.th.HTTP5xxRate*100),
		Details: map[string]any{
			"errorRate":    m.ErrorRate,
			"recentErrors": recent,
		},
	})
}

// RateLimitHitRecorded fires the spike warning when hits in the trailing
// minute reach the configured count.
func (e *Engine) RateLimitHitRecorded() {
	n := e.store.RateLimitHitCount(evalWindow)
	if n < e.th.RateLimitHits {
		return
	}
	e.emit(Alert{
		Type:     TypeRateLimitSpike,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%d rate limit hits in the last minute", n),
		Details: map[string]any{
			"count":     n,
			"threshold": e.th.RateLimitHits,
		},
	})
}

// SystemSampled compares one CPU/memory reading against the saturation
// thresholds, emitting a warning per breached resource.
func (e *Engine) SystemSampled(cpuPercent, memPercent float64) {
	if cpuPercent > e.th.CPUPercent {
		e.emit(Alert{
			Type:     TypeHighCPU,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("CPU usage is %.1f%% (threshold: %g%%)",
				cpuPercent, e.th.CPUPercent),
			Details: map[string]any{"cpuUsage": cpuPercent},
		})
	}
	if memPercent > e.th.MemoryPercent {
		e.emit(Alert{
			Type:     TypeHighMemory,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Memory usage is %.1f%% (threshold: %g%%)",
				memPercent, e.th.MemoryPercent),
			Details: map[string]any{"memUsage": memPercent},
		})
	}
}

// BackupFailureRecorded fires the critical staleness alert when no backup has
// ever succeeded or the last success is older than the configured max age.
func (e *Engine) BackupFailureRecorded() {
	st := e.store.BackupStatus()
	if !st.IsStale {
		return
	}
	e.emit(Alert{
		Type:     TypeBackupFailure,
		Severity: SeverityCritical,
		Message: fmt.Sprintf("Backup has not succeeded in %d hours",
			e.th.BackupMaxAgeHours),
		Details: st,
	})
}

func (e *Engine) emit(a Alert) {
	a.ID = uuid.NewString()
	a.Timestamp = e.now().UnixMilli()
	e.pub.Publish(a)
}
