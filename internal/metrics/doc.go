// Package metrics implements the in-process metric store for the telemetry
// engine: append-only records with tiered retention, lifetime per-path and
// per-tenant aggregates, the recorder API called by instrumentation points,
// and the windowed aggregation queries the HTTP API and the Prometheus
// exporter read from.
//
// The store is a single mutex-guarded instance constructed at process start.
// Nothing is persisted; state is rebuilt from zero on restart. Recorder calls
// never block on I/O and never return errors to the caller — instrumentation
// must not be able to fail the operation it observes.
package metrics
