// Package dbhealth watches a Postgres connection pool for the telemetry
// store: periodic pings drive the health flag and the connection-error alert,
// and the pool stats feed the database summary.
package dbhealth
