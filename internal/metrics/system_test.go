package metrics

import (
	"testing"
	"time"
)

func TestSystemMetrics_Summary(t *testing.T) {
	s := newTestStore()
	s.RecordSystemSample(40, 50, 1000, 500, 500)
	s.RecordSystemSample(60, 70, 1000, 700, 300)

	m := s.SystemMetrics(0)
	if m.CPU.Current != 60 {
		t.Errorf("CPU.Current: got %v, want 60", m.CPU.Current)
	}
	if m.CPU.Average != 50 {
		t.Errorf("CPU.Average: got %v, want 50", m.CPU.Average)
	}
	if m.CPU.Max != 60 {
		t.Errorf("CPU.Max: got %v, want 60", m.CPU.Max)
	}
	if m.Memory.Current != 70 || m.Memory.UsedBytes != 700 {
		t.Errorf("Memory: got %+v, want current 70 used 700", m.Memory)
	}
	if m.Platform == "" {
		t.Error("Platform: empty")
	}
}

func TestSystemMetrics_WindowExcludesOld(t *testing.T) {
	base := time.Now()
	s := newTestStore()

	s.now = fixedClock(base.Add(-10 * time.Minute))
	s.RecordSystemSample(90, 90, 1000, 900, 100)

	s.now = fixedClock(base)
	s.RecordSystemSample(10, 20, 1000, 200, 800)

	m := s.SystemMetrics(5 * time.Minute)
	if m.CPU.Max != 10 {
		t.Errorf("CPU.Max in 5m window: got %v, want 10", m.CPU.Max)
	}
	if m.Memory.Average != 20 {
		t.Errorf("Memory.Average in 5m window: got %v, want 20", m.Memory.Average)
	}
}

func TestSystemMetrics_Empty(t *testing.T) {
	s := newTestStore()
	m := s.SystemMetrics(0)
	if m.CPU.Current != 0 || m.CPU.Average != 0 || m.CPU.Max != 0 {
		t.Errorf("empty CPU stats: got %+v, want zeros", m.CPU)
	}
	if m.Memory.TotalBytes != 0 {
		t.Errorf("empty memory stats: got %+v, want zeros", m.Memory)
	}
}

func TestRecordSchedulerLag(t *testing.T) {
	s := newTestStore()
	s.RecordSchedulerLag(15 * time.Millisecond)
	s.RecordSchedulerLag(25 * time.Millisecond)

	m := s.SystemMetrics(0)
	if m.EventLoop.Current != 25 {
		t.Errorf("EventLoop.Current: got %v, want 25", m.EventLoop.Current)
	}
	if m.EventLoop.Average != 20 {
		t.Errorf("EventLoop.Average: got %v, want 20", m.EventLoop.Average)
	}
}

func TestSentryMetrics_WindowAndRing(t *testing.T) {
	base := time.Now()
	s := newTestStore()

	s.now = fixedClock(base.Add(-2 * time.Hour))
	s.RecordSentryIssue(SentryIssue{IssueID: "old", Title: "stale", Level: "error"})

	s.now = fixedClock(base)
	s.RecordSentryIssue(SentryIssue{IssueID: "new-1", Title: "boom", Level: "error", Count: 3})
	s.UpdateSentryUnresolvedCount(7)

	m := s.SentryMetrics(0)
	if m.NewIssuesCount != 1 {
		t.Errorf("NewIssuesCount: got %d, want 1", m.NewIssuesCount)
	}
	if m.UnresolvedCount != 7 {
		t.Errorf("UnresolvedCount: got %d, want 7", m.UnresolvedCount)
	}
	if len(m.RecentIssues) != 1 || m.RecentIssues[0].IssueID != "new-1" {
		t.Errorf("RecentIssues: got %+v", m.RecentIssues)
	}
}

func TestRecordSentryIssue_RingBounded(t *testing.T) {
	s := newTestStore()
	for i := 0; i < sentryIssueCap+10; i++ {
		s.RecordSentryIssue(SentryIssue{IssueID: "i", Level: "error"})
	}
	if n := len(s.sentry.issues); n != sentryIssueCap {
		t.Errorf("issue ring length: got %d, want %d", n, sentryIssueCap)
	}
}
