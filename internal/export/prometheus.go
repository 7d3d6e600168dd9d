package export

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bisman/telemetry/internal/metrics"
)

// labelUnsafe matches every character that may not appear in a tenant label
// value.
var labelUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Render produces the Prometheus text exposition of the store's current
// state. Every series is prefixed erp_. Scrapes are point-in-time reads — no
// exporter state is kept between calls.
func Render(s *metrics.Store) string {
	var b strings.Builder

	db := s.DBHealth()
	gauge(&b, "erp_db_healthy", "Database connection health", boolToInt(db.Healthy))
	gauge(&b, "erp_db_active_connections", "Active database connections", int64(db.ActiveConnections))
	counter(&b, "erp_db_connection_errors_total", "Database connection errors in last 5 min", int64(db.RecentErrorCount))

	http := s.HTTPMetrics(0)
	counter(&b, "erp_http_requests_total", "Total HTTP requests", http.TotalRequests)
	counter(&b, "erp_http_errors_total", "Total HTTP 5xx errors", http.TotalErrors)
	gaugef(&b, "erp_http_error_rate", "HTTP error rate (0-1)", fixed4(http.ErrorRate))
	gaugef(&b, "erp_http_avg_response_time_ms", "Average response time in ms", num(http.AvgResponseTimeMs))
	counter(&b, "erp_rate_limit_hits_total", "Rate limit hits in last 5 min", int64(http.RateLimitHits))

	sys := s.SystemMetrics(0)
	gaugef(&b, "erp_cpu_usage_percent", "CPU usage percentage", fixed2(sys.CPU.Current))
	gaugef(&b, "erp_memory_usage_percent", "Memory usage percentage", fixed2(sys.Memory.Current))
	gauge(&b, "erp_memory_used_bytes", "Memory used in bytes", int64(sys.Memory.UsedBytes))
	gaugef(&b, "erp_event_loop_lag_ms", "Event loop lag in ms", fixed2(sys.EventLoop.Current))
	gauge(&b, "erp_uptime_seconds", "Process uptime in seconds", int64(math.Floor(sys.UptimeSeconds)))

	backup := s.BackupStatus()
	gauge(&b, "erp_backup_last_success_timestamp", "Last successful backup timestamp", backup.LastSuccess)
	gauge(&b, "erp_backup_stale", "Backup is stale (1=stale, 0=ok)", boolToInt(backup.IsStale))

	sentry := s.SentryMetrics(0)
	gauge(&b, "erp_sentry_unresolved_issues", "Unresolved Sentry issues", int64(sentry.UnresolvedCount))
	gauge(&b, "erp_sentry_new_issues_1h", "New Sentry issues in last hour", int64(sentry.NewIssuesCount))

	// Per-tenant series, grouped by family so the exposition stays valid for
	// strict parsers. Tenant order is fixed by the store (sorted by id).
	tenants := s.TenantProm()
	for _, t := range tenants {
		fmt.Fprintf(&b, "erp_tenant_requests_total{tenant=%q} %d\n", sanitizeLabel(t.TenantID), t.Requests)
	}
	for _, t := range tenants {
		fmt.Fprintf(&b, "erp_tenant_errors_total{tenant=%q} %d\n", sanitizeLabel(t.TenantID), t.Errors)
	}
	for _, t := range tenants {
		fmt.Fprintf(&b, "erp_tenant_error_rate{tenant=%q} %s\n", sanitizeLabel(t.TenantID), fixed4(t.ErrorRate))
	}

	return b.String()
}

func gauge(b *strings.Builder, name, help string, v int64) {
	header(b, name, help, "gauge")
	fmt.Fprintf(b, "%s %d\n", name, v)
}

func gaugef(b *strings.Builder, name, help, v string) {
	header(b, name, help, "gauge")
	fmt.Fprintf(b, "%s %s\n", name, v)
}

func counter(b *strings.Builder, name, help string, v int64) {
	header(b, name, help, "counter")
	fmt.Fprintf(b, "%s %d\n", name, v)
}

func header(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
}

// sanitizeLabel replaces every character outside [a-zA-Z0-9_-] so tenant ids
// cannot break the exposition format.
func sanitizeLabel(v string) string {
	return labelUnsafe.ReplaceAllString(v, "_")
}

func fixed4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
func fixed2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// num renders a float the shortest way, so whole values print without a
// trailing ".0".
func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
