package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.RateLimit.RequestsPerMinute != DefaultRateLimitPerMin {
		t.Errorf("requests_per_minute: got %d, want %d",
			cfg.Server.RateLimit.RequestsPerMinute, DefaultRateLimitPerMin)
	}
	if cfg.Server.Database.CheckInterval != DefaultDBCheckInterval {
		t.Errorf("check_interval: got %v, want %v",
			cfg.Server.Database.CheckInterval, DefaultDBCheckInterval)
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  auth:
    mode: apikey
    admin_key_env: MON_ADMIN_KEY
    header: x-mon-key
    tenants:
      - id: acme
        key_env: MON_ACME_KEY
  rate_limit:
    enabled: true
    requests_per_minute: 60
  database:
    dsn_env: DATABASE_URL
    check_interval: 10s
  sentry:
    api_url: https://sentry.example.com/api/0/projects/org/proj
    token_env: SENTRY_TOKEN
    poll_interval: 2m
  webhooks:
    - type: slack
      url_env: SLACK_WEBHOOK_URL
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.Auth.Mode != "apikey" {
		t.Errorf("auth.mode: got %q, want apikey", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.EffectiveHeader() != "x-mon-key" {
		t.Errorf("auth header: got %q, want x-mon-key", cfg.Server.Auth.EffectiveHeader())
	}
	if len(cfg.Server.Auth.Tenants) != 1 || cfg.Server.Auth.Tenants[0].ID != "acme" {
		t.Errorf("auth.tenants: got %+v, want one entry for acme", cfg.Server.Auth.Tenants)
	}
	if cfg.Server.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("requests_per_minute: got %d, want 60", cfg.Server.RateLimit.RequestsPerMinute)
	}
	if cfg.Server.Database.CheckInterval != 10*time.Second {
		t.Errorf("check_interval: got %v, want 10s", cfg.Server.Database.CheckInterval)
	}
	if cfg.Server.Sentry.PollInterval != 2*time.Minute {
		t.Errorf("poll_interval: got %v, want 2m", cfg.Server.Sentry.PollInterval)
	}
	if len(cfg.Server.Webhooks) != 1 || cfg.Server.Webhooks[0].Type != "slack" {
		t.Errorf("webhooks: got %+v, want one slack entry", cfg.Server.Webhooks)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 70000
`)
	if _, err := Load(p); err == nil {
		t.Fatal("Load: expected error for out-of-range port, got nil")
	}
}

func TestLoad_UnknownAuthMode(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: oauth
`)
	if _, err := Load(p); err == nil {
		t.Fatal("Load: expected error for unknown auth mode, got nil")
	}
}

func TestEffectiveHeader_Default(t *testing.T) {
	var a AuthConfig
	if got := a.EffectiveHeader(); got != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", got)
	}
}

func TestThresholdsFromEnv_Defaults(t *testing.T) {
	for _, v := range []string{
		"ALERT_DB_ERROR_RATE", "ALERT_5XX_RATE", "ALERT_RATE_LIMIT_HITS",
		"ALERT_CPU_PERCENT", "ALERT_MEMORY_PERCENT", "ALERT_EVENT_LOOP_LAG",
		"ALERT_BACKUP_MAX_AGE",
	} {
		os.Unsetenv(v)
	}

	th := ThresholdsFromEnv()
	if th != DefaultThresholds() {
		t.Errorf("ThresholdsFromEnv: got %+v, want defaults %+v", th, DefaultThresholds())
	}
}

func TestThresholdsFromEnv_Overrides(t *testing.T) {
	t.Setenv("ALERT_5XX_RATE", "0.10")
	t.Setenv("ALERT_RATE_LIMIT_HITS", "50")
	t.Setenv("ALERT_BACKUP_MAX_AGE", "48")

	th := ThresholdsFromEnv()
	if th.HTTP5xxRate != 0.10 {
		t.Errorf("HTTP5xxRate: got %v, want 0.10", th.HTTP5xxRate)
	}
	if th.RateLimitHits != 50 {
		t.Errorf("RateLimitHits: got %d, want 50", th.RateLimitHits)
	}
	if th.BackupMaxAgeHours != 48 {
		t.Errorf("BackupMaxAgeHours: got %d, want 48", th.BackupMaxAgeHours)
	}
}

func TestThresholdsFromEnv_MalformedFallsBack(t *testing.T) {
	t.Setenv("ALERT_5XX_RATE", "not-a-number")
	t.Setenv("ALERT_RATE_LIMIT_HITS", "12.5")

	th := ThresholdsFromEnv()
	if th.HTTP5xxRate != DefaultHTTP5xxRate {
		t.Errorf("HTTP5xxRate: got %v, want default %v", th.HTTP5xxRate, DefaultHTTP5xxRate)
	}
	if th.RateLimitHits != DefaultRateLimitHits {
		t.Errorf("RateLimitHits: got %d, want default %d", th.RateLimitHits, DefaultRateLimitHits)
	}
}
