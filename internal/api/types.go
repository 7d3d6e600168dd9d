package api

import "github.com/bisman/telemetry/internal/metrics"

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Checks    HealthChecks `json:"checks"`
}

// HealthChecks groups the per-subsystem health details.
type HealthChecks struct {
	Database DatabaseCheck `json:"database"`
	System   SystemCheck   `json:"system"`
}

// DatabaseCheck reports connectivity and recent error volume.
type DatabaseCheck struct {
	Status            string `json:"status"`
	ActiveConnections int    `json:"activeConnections"`
	RecentErrors      int    `json:"recentErrors"`
}

// SystemCheck reports resource usage as display strings, the format the
// dashboards render directly.
type SystemCheck struct {
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
	Uptime string `json:"uptime"`
}

// BackupReport is the POST /api/monitoring/backup-report body.
type BackupReport struct {
	Success bool           `json:"success"`
	Details map[string]any `json:"details"`
}

// TenantListResponse wraps the tenant listing.
type TenantListResponse struct {
	Count   int                     `json:"count"`
	Tenants []metrics.TenantSummary `json:"tenants"`
}

// TenantErrorRateResponse wraps the error-rate ranking.
type TenantErrorRateResponse struct {
	Count   int                       `json:"count"`
	Tenants []metrics.TenantErrorRate `json:"tenants"`
}

type errorResponse struct {
	Error string `json:"error"`
}
