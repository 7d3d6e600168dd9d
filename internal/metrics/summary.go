package metrics

import "github.com/bisman/telemetry/internal/config"

// Summary composes every category summary with its default window, plus the
// active threshold configuration.
type Summary struct {
	Timestamp  int64             `json:"timestamp"`
	Database   DBHealth          `json:"database"`
	HTTP       HTTPMetrics       `json:"http"`
	System     SystemMetrics     `json:"system"`
	Backup     BackupStatus      `json:"backup"`
	Sentry     SentryMetrics     `json:"sentry"`
	Tenants    []TenantSummary   `json:"tenants"`
	Thresholds config.Thresholds `json:"thresholds"`
}

// FullSummary returns the composed monitoring summary with default windows.
func (s *Store) FullSummary() Summary {
	return Summary{
		Timestamp:  s.nowMs(),
		Database:   s.DBHealth(),
		HTTP:       s.HTTPMetrics(0),
		System:     s.SystemMetrics(0),
		Backup:     s.BackupStatus(),
		Sentry:     s.SentryMetrics(0),
		Tenants:    s.TenantMetrics(),
		Thresholds: s.thresholds,
	}
}
