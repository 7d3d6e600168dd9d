package sysmon

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bisman/telemetry/internal/metrics"
)

const (
	// DefaultInterval is how often the host is sampled.
	DefaultInterval = 10 * time.Second

	// lagProbe is the timer length used to measure scheduler wake delay.
	lagProbe = 50 * time.Millisecond
)

// Sampler periodically reads host CPU and memory usage into the store. CPU
// percent is derived from the delta of cumulative per-core counters between
// two consecutive samples, averaged across cores.
type Sampler struct {
	store    *metrics.Store
	interval time.Duration

	// injectable for deterministic tests
	cpuTimes      func(percpu bool) ([]cpu.TimesStat, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)

	prev []cpu.TimesStat
}

// New creates a Sampler reading into store at the default interval.
func New(store *metrics.Store) *Sampler {
	return &Sampler{
		store:         store,
		interval:      DefaultInterval,
		cpuTimes:      cpu.Times,
		virtualMemory: mem.VirtualMemory,
	}
}

// Run samples until ctx is cancelled. The first CPU reading only seeds the
// counters, so the first recorded sample lands one interval after start.
func (s *Sampler) Run(ctx context.Context) {
	if prev, err := s.cpuTimes(true); err == nil {
		s.prev = prev
	} else {
		slog.Warn("sysmon: initial cpu read failed", "err", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
			s.store.RecordSchedulerLag(measureLag())
		}
	}
}

// sample takes one CPU+memory reading. A failed read logs and skips the
// cycle — the store simply receives no sample.
func (s *Sampler) sample() {
	cur, err := s.cpuTimes(true)
	if err != nil {
		slog.Warn("sysmon: cpu read failed — skipping sample", "err", err)
		return
	}
	vm, err := s.virtualMemory()
	if err != nil {
		slog.Warn("sysmon: memory read failed — skipping sample", "err", err)
		return
	}

	cpuPct, ok := cpuPercent(s.prev, cur)
	s.prev = cur
	if !ok {
		return
	}

	// Used is derived as total-free so the bytes gauge and the percent agree;
	// gopsutil's Used excludes buffers/cache on Linux.
	used := vm.Total - vm.Free
	memPct := 0.0
	if vm.Total > 0 {
		memPct = float64(used) / float64(vm.Total) * 100
	}

	s.store.RecordSystemSample(cpuPct, memPct, vm.Total, used, vm.Free)
}

// cpuPercent averages per-core busy time over the interval between prev and
// cur. It reports false until two matching readings exist.
func cpuPercent(prev, cur []cpu.TimesStat) (float64, bool) {
	if len(prev) == 0 || len(prev) != len(cur) {
		return 0, false
	}

	var sum float64
	cores := 0
	for i := range cur {
		totalDelta := cur[i].Total() - prev[i].Total()
		if totalDelta <= 0 {
			continue
		}
		idleDelta := (cur[i].Idle + cur[i].Iowait) - (prev[i].Idle + prev[i].Iowait)
		busy := (totalDelta - idleDelta) / totalDelta * 100
		if busy < 0 {
			busy = 0
		}
		if busy > 100 {
			busy = 100
		}
		sum += busy
		cores++
	}
	if cores == 0 {
		return 0, false
	}
	return sum / float64(cores), true
}

// measureLag times how late a timer fires: the delay between the requested
// and the actual wake is the scheduler lag.
func measureLag() time.Duration {
	start := time.Now()
	timer := time.NewTimer(lagProbe)
	<-timer.C
	lag := time.Since(start) - lagProbe
	if lag < 0 {
		lag = 0
	}
	return lag
}
