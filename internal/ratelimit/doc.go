// Package ratelimit provides the fixed-window request limiter in front of
// the monitoring API. Counting is keyed by client IP and backed either by an
// in-process map or by Redis INCR/EXPIRE when an address is configured, so a
// multi-replica deployment shares one budget. Rejections are recorded in the
// telemetry store, which feeds the rate-limit spike alert.
package ratelimit
