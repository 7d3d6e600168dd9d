package api

import (
	"net/http"
	"time"

	"github.com/bisman/telemetry/internal/auth"
	"github.com/bisman/telemetry/internal/metrics"
)

// Instrument records one telemetry entry per completed request, after the
// response is finalized. The /metrics and /health probes are excluded so the
// engine never measures its own scrapes.
func Instrument(store *metrics.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			tenant := ""
			if p, ok := auth.FromContext(r.Context()); ok {
				tenant = p.TenantID
			}
			store.RecordHTTPRequest(metrics.RequestInfo{
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    rec.status,
				TenantID:  tenant,
				UserAgent: r.UserAgent(),
				Duration:  time.Since(start),
			})
		})
	}
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
