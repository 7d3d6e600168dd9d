// Package sentrypoll mirrors the project's Sentry issue state into the
// telemetry store: the unresolved-issue count and a bounded log of newly
// seen issues.
package sentrypoll
