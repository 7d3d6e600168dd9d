// Package config loads the monitoring server configuration.
//
// Two sources, read once at startup:
//   - config.yaml (`server:` section) — ports, auth keys, rate limiting,
//     database/Sentry integration, webhook targets. Secrets are never stored
//     in the file; the file names environment variables (`*_env`) that hold
//     them. Load(path) applies defaults before unmarshalling, then validates.
//   - ALERT_* environment variables — alert thresholds. A malformed value
//     falls back to its default with a logged warning instead of failing
//     startup (ThresholdsFromEnv).
package config
