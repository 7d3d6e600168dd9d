package alerts

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert types emitted by the engine.
const (
	TypeDBConnectionErrors = "db_connection_errors"
	TypeHigh5xxRate        = "high_5xx_rate"
	TypeRateLimitSpike     = "rate_limit_spike"
	TypeHighCPU            = "high_cpu"
	TypeHighMemory         = "high_memory"
	TypeBackupFailure      = "backup_failure"
)

// Alert is a transient threshold-breach notification. It is published to
// subscribers, never stored — consumers own persistence if they need it.
type Alert struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // epoch ms
	Details   any    `json:"details,omitempty"`
}

// Publisher accepts alerts for delivery. *Bus is the production
// implementation; tests substitute a capturing func.
type Publisher interface {
	Publish(Alert)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(Alert)

// Publish calls f.
func (f PublisherFunc) Publish(a Alert) { f(a) }
