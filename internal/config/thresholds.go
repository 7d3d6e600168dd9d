package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Default alert thresholds, applied when the corresponding environment
// variable is unset or malformed.
const (
	DefaultDBErrorRate       = 0.01
	DefaultHTTP5xxRate       = 0.05
	DefaultRateLimitHits     = 100
	DefaultCPUPercent        = 80
	DefaultMemoryPercent     = 85
	DefaultEventLoopLagMs    = 100
	DefaultBackupMaxAgeHours = 24
)

// Thresholds holds the alert thresholds read once at startup from the
// environment. Malformed values fall back to the defaults — a bad threshold
// must never prevent the engine from starting.
//
// DBErrorRate and EventLoopLagMs are accepted and reported in summaries but
// are not evaluated by any alert rule.
type Thresholds struct {
	DBErrorRate       float64 `json:"dbConnectionErrorRate"`
	HTTP5xxRate       float64 `json:"http5xxRate"`
	RateLimitHits     int     `json:"rateLimitHitsPerMinute"`
	CPUPercent        float64 `json:"cpuUsagePercent"`
	MemoryPercent     float64 `json:"memoryUsagePercent"`
	EventLoopLagMs    int     `json:"eventLoopLagMs"`
	BackupMaxAgeHours int     `json:"backupMaxAgeHours"`
}

// DefaultThresholds returns the documented defaults without consulting the
// environment.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DBErrorRate:       DefaultDBErrorRate,
		HTTP5xxRate:       DefaultHTTP5xxRate,
		RateLimitHits:     DefaultRateLimitHits,
		CPUPercent:        DefaultCPUPercent,
		MemoryPercent:     DefaultMemoryPercent,
		EventLoopLagMs:    DefaultEventLoopLagMs,
		BackupMaxAgeHours: DefaultBackupMaxAgeHours,
	}
}

// ThresholdsFromEnv reads the ALERT_* environment variables, falling back to
// the defaults for anything unset or unparseable.
func ThresholdsFromEnv() Thresholds {
	return Thresholds{
		DBErrorRate:       envFloat("ALERT_DB_ERROR_RATE", DefaultDBErrorRate),
		HTTP5xxRate:       envFloat("ALERT_5XX_RATE", DefaultHTTP5xxRate),
		RateLimitHits:     envInt("ALERT_RATE_LIMIT_HITS", DefaultRateLimitHits),
		CPUPercent:        envFloat("ALERT_CPU_PERCENT", DefaultCPUPercent),
		MemoryPercent:     envFloat("ALERT_MEMORY_PERCENT", DefaultMemoryPercent),
		EventLoopLagMs:    envInt("ALERT_EVENT_LOOP_LAG", DefaultEventLoopLagMs),
		BackupMaxAgeHours: envInt("ALERT_BACKUP_MAX_AGE", DefaultBackupMaxAgeHours),
	}
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("config: malformed threshold — using default",
			"var", name, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("config: malformed threshold — using default",
			"var", name, "value", raw, "default", fallback)
		return fallback
	}
	return v
}
