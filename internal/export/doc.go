// Package export renders the telemetry store in the Prometheus text
// exposition format. The renderer is a pure function of the store — each
// scrape re-reads the current summaries, and nothing is cached or
// incremented on the exporter side.
package export
