// Package sysmon samples host CPU, memory and scheduler lag into the
// telemetry store on a fixed interval. Read failures are logged and the
// cycle skipped — the sampler never stops on its own.
package sysmon
