// Package alerts implements threshold evaluation and alert delivery for the
// telemetry engine. The Engine is invoked synchronously after specific
// recordings (via the store's hook) and compares freshly computed windowed
// statistics against the configured thresholds. Breaches become Alert events
// published on the Bus, which fans them out to subscribers (log sink,
// webhook notifier, Sentry, the WebSocket hub) over bounded per-subscriber
// queues — a slow subscriber drops alerts, it never blocks the recording
// path.
//
// Alerts are transient: nothing in this package stores them. There is also no
// debounce — a sustained breach re-emits an alert on every triggering
// recording, and deduplication is left to the consumers.
package alerts
