package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bisman/telemetry/internal/auth"
	"github.com/bisman/telemetry/internal/metrics"
)

// Middleware enforces a per-client budget of limit requests per minute.
// Rejections answer 429 and are recorded in the store (feeding the
// rate-limit spike alert) with the tenant resolved from the authenticated
// principal, so the middleware must run inside the auth middleware.
func Middleware(l Limiter, limit int, store *metrics.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			d := l.Allow("ip:"+ip, limit, time.Minute)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			if remaining := limit - d.Count; remaining > 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			} else {
				w.Header().Set("X-RateLimit-Remaining", "0")
			}

			if !d.Allowed {
				tenant := ""
				if p, ok := auth.FromContext(r.Context()); ok {
					tenant = p.TenantID
				}
				store.RecordRateLimitHit(ip, r.URL.Path, tenant)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(d.WindowEnd)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return host
}

func retryAfter(windowEnd time.Time) int {
	secs := int(time.Until(windowEnd).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
