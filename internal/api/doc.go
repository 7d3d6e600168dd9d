// Package api exposes the monitoring HTTP surface: the unauthenticated
// /metrics (Prometheus text) and /health probes, and the admin-facing
// /api/monitoring/* JSON endpoints. It also provides the instrumentation
// middleware that feeds the server's own traffic back into the store.
package api
