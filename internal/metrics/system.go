package metrics

import (
	"math"
	"time"
)

// SystemMetrics is the windowed host summary returned by
// (*Store).SystemMetrics. With no samples in the window all numeric fields
// are zero.
type SystemMetrics struct {
	CPU           UsageStats  `json:"cpu"`
	Memory        MemoryStats `json:"memory"`
	EventLoop     UsageStats  `json:"eventLoop"`
	UptimeSeconds float64     `json:"uptime"`
	Platform      string      `json:"platform"`
	Hostname      string      `json:"hostname"`
}

// UsageStats summarizes one scalar sample series over a window.
type UsageStats struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
}

// MemoryStats summarizes the memory sample series over a window.
type MemoryStats struct {
	Current    float64 `json:"current"`
	Average    float64 `json:"average"`
	TotalBytes uint64  `json:"totalBytes"`
	UsedBytes  uint64  `json:"usedBytes"`
	FreeBytes  uint64  `json:"freeBytes"`
}

// RecordSystemSample appends one host CPU/memory reading and triggers the
// resource saturation alert checks.
func (s *Store) RecordSystemSample(cpuPercent, memPercent float64, total, used, free uint64) {
	now := s.nowMs()

	s.mu.Lock()
	s.system.cpu = append(s.system.cpu, Sample{Timestamp: now, Value: cpuPercent})
	s.system.memory = append(s.system.memory, MemorySample{
		Timestamp: now,
		Value:     memPercent,
		Total:     total,
		Used:      used,
		Free:      free,
	})
	s.mu.Unlock()

	if s.hook != nil {
		s.hook.SystemSampled(cpuPercent, memPercent)
	}
}

// RecordSchedulerLag appends one scheduler latency reading.
func (s *Store) RecordSchedulerLag(lag time.Duration) {
	sample := Sample{
		Timestamp: s.nowMs(),
		Value:     float64(lag) / float64(time.Millisecond),
	}

	s.mu.Lock()
	s.system.lag = append(s.system.lag, sample)
	s.mu.Unlock()
}

// SystemMetrics returns the host summary for the trailing window. A
// non-positive window selects the default (5 minutes).
func (s *Store) SystemMetrics(window time.Duration) SystemMetrics {
	if window <= 0 {
		window = DefaultSystemWindow
	}
	cut := cutoff(s.now(), window)
	uptime := s.Uptime().Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := SystemMetrics{
		CPU:           summarize(s.system.cpu, cut),
		EventLoop:     summarize(s.system.lag, cut),
		UptimeSeconds: uptime,
		Platform:      s.platform,
		Hostname:      s.hostname,
	}

	var (
		sum    float64
		n      int
		latest *MemorySample
	)
	for i := range s.system.memory {
		ms := &s.system.memory[i]
		if ms.Timestamp <= cut {
			continue
		}
		sum += ms.Value
		n++
		latest = ms
	}
	if n > 0 {
		m.Memory = MemoryStats{
			Current:    latest.Value,
			Average:    round2(sum / float64(n)),
			TotalBytes: latest.Total,
			UsedBytes:  latest.Used,
			FreeBytes:  latest.Free,
		}
	}
	return m
}

// summarize computes current/average/max over the samples newer than cut.
func summarize(samples []Sample, cut int64) UsageStats {
	var st UsageStats
	var sum float64
	n := 0
	for _, s := range samples {
		if s.Timestamp <= cut {
			continue
		}
		sum += s.Value
		n++
		st.Current = s.Value
		if s.Value > st.Max {
			st.Max = s.Value
		}
	}
	if n > 0 {
		st.Average = round2(sum / float64(n))
	}
	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
