package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bisman/telemetry/internal/auth"
	"github.com/bisman/telemetry/internal/export"
	"github.com/bisman/telemetry/internal/metrics"
)

// Handler is the HTTP handler for the monitoring endpoints: the public
// /metrics and /health probes and the authenticated /api/monitoring/* tree.
// It reads from the telemetry store and returns JSON (or Prometheus text).
type Handler struct {
	store *metrics.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given store and registers all routes.
// Authentication must be applied by the surrounding middleware; route-level
// role checks happen here.
func New(store *metrics.Store) http.Handler {
	h := &Handler{store: store, mux: http.NewServeMux()}

	h.mux.HandleFunc("/metrics", h.prometheus)
	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/api/monitoring/summary", h.summary)
	h.mux.HandleFunc("/api/monitoring/database", h.database)
	h.mux.HandleFunc("/api/monitoring/http", h.httpMetrics)
	h.mux.HandleFunc("/api/monitoring/system", h.system)
	h.mux.HandleFunc("/api/monitoring/backup", h.backup)
	h.mux.HandleFunc("/api/monitoring/backup-report", h.backupReport)
	h.mux.HandleFunc("/api/monitoring/tenants", h.tenants)
	h.mux.HandleFunc("/api/monitoring/tenants/", h.tenantByID) // subtree — extracts {id}
	h.mux.HandleFunc("/api/monitoring/tenants-error-rates", h.tenantErrorRates)
	h.mux.HandleFunc("/api/monitoring/sentry", h.sentry)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// prometheus returns GET /metrics — the text exposition. A panic anywhere in
// the render path degrades to the diagnostic comment body, never an unhandled
// error.
func (h *Handler) prometheus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("api: metrics render panicked", "panic", rec)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "# Error generating metrics\n")
		}
	}()

	body := export.Render(h.store)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, body)
}

// health returns GET /health — 200 while the database responds and neither
// CPU nor memory sits at 95% or above. The 95 bar is fixed, independent of
// the alert thresholds.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("api: health check panicked", "panic", rec)
			jsonResp(w, http.StatusServiceUnavailable, map[string]string{
				"status": "error",
				"error":  fmt.Sprint(rec),
			})
		}
	}()

	db := h.store.DBHealth()
	sys := h.store.SystemMetrics(0)

	healthy := db.Healthy && sys.CPU.Current < 95 && sys.Memory.Current < 95

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	dbStatus := "up"
	if !db.Healthy {
		dbStatus = "down"
	}

	uptime := int64(math.Floor(sys.UptimeSeconds))
	jsonResp(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks: HealthChecks{
			Database: DatabaseCheck{
				Status:            dbStatus,
				ActiveConnections: db.ActiveConnections,
				RecentErrors:      db.RecentErrorCount,
			},
			System: SystemCheck{
				CPU:    fmt.Sprintf("%.1f%%", sys.CPU.Current),
				Memory: fmt.Sprintf("%.1f%%", sys.Memory.Current),
				Uptime: fmt.Sprintf("%dh %dm", uptime/3600, (uptime%3600)/60),
			},
		},
	})
}

// summary returns GET /api/monitoring/summary — the full composed summary.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	jsonResp(w, http.StatusOK, h.store.FullSummary())
}

// database returns GET /api/monitoring/database.
func (h *Handler) database(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	jsonResp(w, http.StatusOK, h.store.DBHealth())
}

// httpMetrics returns GET /api/monitoring/http?window=<ms>.
func (h *Handler) httpMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	jsonResp(w, http.StatusOK, h.store.HTTPMetrics(windowParam(r)))
}

// system returns GET /api/monitoring/system?window=<ms>.
func (h *Handler) system(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	jsonResp(w, http.StatusOK, h.store.SystemMetrics(windowParam(r)))
}

// backup returns GET /api/monitoring/backup.
func (h *Handler) backup(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	jsonResp(w, http.StatusOK, h.store.BackupStatus())
}

// backupReport handles POST /api/monitoring/backup-report — external backup
// jobs report their outcome here.
func (h *Handler) backupReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	var report BackupReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid backup report body")
		return
	}

	h.store.RecordBackupComplete(report.Success, report.Details)
	jsonResp(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// tenants returns GET /api/monitoring/tenants — all tenants, most active first.
func (h *Handler) tenants(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	all := h.store.TenantMetrics()
	jsonResp(w, http.StatusOK, TenantListResponse{Count: len(all), Tenants: all})
}

// tenantByID returns GET /api/monitoring/tenants/{id} — one tenant's summary,
// visible to admins and to the tenant itself.
func (h *Handler) tenantByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/monitoring/tenants/")
	if id == "" {
		h.tenants(w, r)
		return
	}

	p, ok := auth.FromContext(r.Context())
	if !ok || !p.CanAccessTenant(id) {
		jsonErr(w, http.StatusForbidden, "access denied")
		return
	}

	sum, ok := h.store.TenantMetric(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "tenant not found")
		return
	}
	jsonResp(w, http.StatusOK, sum)
}

// tenantErrorRates returns GET /api/monitoring/tenants-error-rates.
func (h *Handler) tenantErrorRates(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	rates := h.store.TenantErrorRates()
	jsonResp(w, http.StatusOK, TenantErrorRateResponse{Count: len(rates), Tenants: rates})
}

// sentry returns GET /api/monitoring/sentry?window=<ms>.
func (h *Handler) sentry(w http.ResponseWriter, r *http.Request) {
	if !h.adminGet(w, r) {
		return
	}
	jsonResp(w, http.StatusOK, h.store.SentryMetrics(windowParam(r)))
}

// --- helpers ----------------------------------------------------------------

// adminGet enforces GET + admin role, the common shape of the monitoring
// endpoints.
func (h *Handler) adminGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return h.requireAdmin(w, r)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	p, ok := auth.FromContext(r.Context())
	if !ok || !p.IsAdmin() {
		jsonErr(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

// windowParam parses the ?window= query value in milliseconds. Absent or
// malformed values yield 0, selecting the store's per-category default.
func windowParam(r *http.Request) time.Duration {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return 0
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
