package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultDBCheckInterval = 30 * time.Second
	DefaultSentryPoll      = 5 * time.Minute
	DefaultRateLimitPerMin = 120
)

// Config holds the server-side configuration parsed from config.yaml.
// Alert thresholds are not part of the file — they come from the ALERT_*
// environment variables (see ThresholdsFromEnv).
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the monitoring API listens on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how admin and tenant callers are authenticated.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit configures the request rate limiter in front of the API.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Database configures the pool health checker. Optional — when no DSN
	// is configured the checker is not started.
	Database DatabaseConfig `yaml:"database"`

	// Sentry configures the issue-tracker poller and the alert sink.
	// Optional — both are disabled without credentials.
	Sentry SentryConfig `yaml:"sentry"`

	// Webhooks holds alert delivery targets.
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AuthConfig controls API caller authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none. "none" treats every caller as admin
	// and is meant for local development only.
	Mode string `yaml:"mode"`

	// Header is the HTTP header the key is read from. Defaults to "x-api-key".
	Header string `yaml:"header"`

	// AdminKeyEnv is the name of the environment variable holding the admin key.
	AdminKeyEnv string `yaml:"admin_key_env"`

	// Tenants maps tenant-scoped API keys to their tenant id.
	Tenants []TenantKey `yaml:"tenants"`
}

// TenantKey binds one tenant id to the environment variable holding its key.
type TenantKey struct {
	ID     string `yaml:"id"`
	KeyEnv string `yaml:"key_env"`
}

// AdminKey returns the admin API key resolved from the environment.
func (a AuthConfig) AdminKey() string {
	if a.AdminKeyEnv == "" {
		return ""
	}
	return os.Getenv(a.AdminKeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// Key returns the tenant API key resolved from the environment.
func (t TenantKey) Key() string {
	if t.KeyEnv == "" {
		return ""
	}
	return os.Getenv(t.KeyEnv)
}

// RateLimitConfig controls the fixed-window request limiter.
type RateLimitConfig struct {
	// Enabled turns the limiter middleware on.
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the per-client budget (default 120).
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Redis selects the Redis backend when Addr is set; otherwise the
	// in-memory limiter is used.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the rate limiter backend.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
}

// Password returns the Redis password resolved from the environment.
func (r RedisConfig) Password() string {
	if r.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(r.PasswordEnv)
}

// DatabaseConfig controls the connection pool health checker.
type DatabaseConfig struct {
	// DSNEnv is the name of the environment variable holding the Postgres DSN.
	DSNEnv string `yaml:"dsn_env"`

	// CheckInterval is how often the pool is pinged (default 30s).
	CheckInterval time.Duration `yaml:"check_interval"`
}

// DSN returns the Postgres DSN resolved from the environment.
func (d DatabaseConfig) DSN() string {
	if d.DSNEnv == "" {
		return ""
	}
	return os.Getenv(d.DSNEnv)
}

// SentryConfig controls the Sentry issue poller and the Sentry alert sink.
type SentryConfig struct {
	// DSNEnv names the environment variable with the project DSN used by
	// the alert sink.
	DSNEnv string `yaml:"dsn_env"`

	// APIURL is the base URL of the Sentry issues API for the project,
	// e.g. https://sentry.example.com/api/0/projects/org/proj.
	APIURL string `yaml:"api_url"`

	// TokenEnv names the environment variable with the API auth token.
	TokenEnv string `yaml:"token_env"`

	// PollInterval is how often unresolved issues are fetched (default 5m).
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DSN returns the Sentry DSN resolved from the environment.
func (s SentryConfig) DSN() string {
	if s.DSNEnv == "" {
		return ""
	}
	return os.Getenv(s.DSNEnv)
}

// Token returns the Sentry API token resolved from the environment.
func (s SentryConfig) Token() string {
	if s.TokenEnv == "" {
		return ""
	}
	return os.Getenv(s.TokenEnv)
}

// WebhookConfig defines one alert delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | pagerduty | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path. An empty path returns the
// built-in defaults, so the server can run without a config file at all.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: DefaultRateLimitPerMin,
			},
			Database: DatabaseConfig{
				CheckInterval: DefaultDBCheckInterval,
			},
			Sentry: SentryConfig{
				PollInterval: DefaultSentryPoll,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must be positive")
	}
	if cfg.Server.Database.CheckInterval <= 0 {
		return fmt.Errorf("server.database.check_interval must be positive")
	}
	if cfg.Server.Sentry.PollInterval <= 0 {
		return fmt.Errorf("server.sentry.poll_interval must be positive")
	}
	return nil
}
