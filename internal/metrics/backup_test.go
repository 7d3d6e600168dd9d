package metrics

import (
	"testing"
	"time"
)

func TestBackupStatus_NeverSucceeded(t *testing.T) {
	s := newTestStore()
	st := s.BackupStatus()
	if !st.IsStale {
		t.Error("IsStale: got false with no successful backup ever, want true")
	}
	if st.StaleThresholdHours != 24 {
		t.Errorf("StaleThresholdHours: got %d, want 24", st.StaleThresholdHours)
	}
}

func TestBackupStatus_FreshSuccess(t *testing.T) {
	base := time.Now()
	s := newTestStore()

	s.now = fixedClock(base.Add(-time.Hour))
	s.RecordBackupComplete(true, nil)

	s.now = fixedClock(base)
	st := s.BackupStatus()
	if st.IsStale {
		t.Error("IsStale: got true one hour after success, want false")
	}
	if st.LastSuccess != base.Add(-time.Hour).UnixMilli() {
		t.Errorf("LastSuccess: got %d", st.LastSuccess)
	}
}

func TestBackupStatus_SuccessAges(t *testing.T) {
	base := time.Now()
	s := newTestStore()

	s.now = fixedClock(base.Add(-25 * time.Hour))
	s.RecordBackupComplete(true, nil)

	// A later failure does not refresh the success timestamp.
	s.now = fixedClock(base.Add(-time.Hour))
	s.RecordBackupComplete(false, map[string]any{"reason": "disk full"})

	s.now = fixedClock(base)
	st := s.BackupStatus()
	if !st.IsStale {
		t.Error("IsStale: got false with success 25h old, want true")
	}
	if st.LastFailure == 0 || st.LastRun != st.LastFailure {
		t.Errorf("LastRun/LastFailure: got %d/%d", st.LastRun, st.LastFailure)
	}
	if len(st.RecentFailures) != 1 {
		t.Fatalf("RecentFailures: got %d, want 1", len(st.RecentFailures))
	}
	if st.RecentFailures[0].Details["reason"] != "disk full" {
		t.Errorf("failure details: got %+v", st.RecentFailures[0].Details)
	}
}

func TestBackupStatus_RecentFailuresCapped(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 8; i++ {
		s.RecordBackupComplete(false, nil)
	}
	st := s.BackupStatus()
	if len(st.RecentFailures) != 5 {
		t.Errorf("RecentFailures: got %d, want 5", len(st.RecentFailures))
	}
}
