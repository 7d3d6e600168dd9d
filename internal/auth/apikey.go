package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bisman/telemetry/internal/config"
)

// Roles assigned to authenticated principals.
const (
	RoleAdmin  = "admin"
	RoleTenant = "tenant"
)

// Principal identifies an authenticated caller. TenantID is empty for admins.
type Principal struct {
	Role     string
	TenantID string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanAccessTenant reports whether the principal may read tenantID's metrics.
func (p Principal) CanAccessTenant(tenantID string) bool {
	return p.IsAdmin() || p.TenantID == tenantID
}

type ctxKey struct{}

// FromContext returns the principal stored by the middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// WithPrincipal returns a context carrying p. Exposed for handler tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Middleware returns the API-key check. Keys are resolved from the
// environment once, at construction — a key rotation requires a restart,
// matching the read-once configuration model.
//
// Behaviour:
//   - mode != "apikey": every request passes through as admin.
//   - Otherwise the header value is compared against the admin key and each
//     configured tenant key; a match stores the principal in the request
//     context.
//   - A missing or unknown key yields 401.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	header := cfg.EffectiveHeader()
	adminKey := cfg.AdminKey()
	type tenantKey struct {
		id  string
		key string
	}
	var tenants []tenantKey
	for _, t := range cfg.Tenants {
		if k := t.Key(); k != "" {
			tenants = append(tenants, tenantKey{id: t.ID, key: k})
		}
	}

	passthrough := cfg.Mode != "apikey"
	if cfg.Mode == "apikey" && adminKey == "" {
		slog.Warn("auth: apikey mode with no admin key configured")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passthrough {
				next.ServeHTTP(w, r.WithContext(
					WithPrincipal(r.Context(), Principal{Role: RoleAdmin})))
				return
			}

			got := r.Header.Get(header)
			if got == "" {
				unauthorized(w, "missing api key")
				return
			}
			if adminKey != "" && equal(got, adminKey) {
				next.ServeHTTP(w, r.WithContext(
					WithPrincipal(r.Context(), Principal{Role: RoleAdmin})))
				return
			}
			for _, t := range tenants {
				if equal(got, t.key) {
					next.ServeHTTP(w, r.WithContext(
						WithPrincipal(r.Context(), Principal{Role: RoleTenant, TenantID: t.id})))
					return
				}
			}
			unauthorized(w, "invalid api key")
		})
	}
}

// RequireAdmin rejects non-admin principals with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok || !p.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
