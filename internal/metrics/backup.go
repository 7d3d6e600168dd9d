package metrics

import "time"

// BackupStatus is the summary returned by (*Store).BackupStatus. Timestamps
// are epoch ms, zero when the event has never happened. IsStale is true when
// no backup has ever succeeded or the last success is older than the
// configured max age.
type BackupStatus struct {
	LastRun             int64           `json:"lastRun"`
	LastSuccess         int64           `json:"lastSuccess"`
	LastFailure         int64           `json:"lastFailure"`
	IsStale             bool            `json:"isStale"`
	StaleThresholdHours int             `json:"staleThresholdHours"`
	RecentFailures      []BackupFailure `json:"recentFailures"`
}

// RecordBackupComplete records the outcome of a backup run. Failures append
// to the failure log and trigger the staleness alert check.
func (s *Store) RecordBackupComplete(success bool, details map[string]any) {
	now := s.nowMs()

	s.mu.Lock()
	s.backup.lastRun = now
	if success {
		s.backup.lastSuccess = now
	} else {
		s.backup.lastFailure = now
		s.backup.failures = append(s.backup.failures, BackupFailure{
			Timestamp: now,
			Details:   details,
		})
	}
	s.mu.Unlock()

	if !success && s.hook != nil {
		s.hook.BackupFailureRecorded()
	}
}

// BackupStatus returns the backup summary.
func (s *Store) BackupStatus() BackupStatus {
	now := s.nowMs()
	maxAge := time.Duration(s.thresholds.BackupMaxAgeHours) * time.Hour

	s.mu.Lock()
	defer s.mu.Unlock()

	stale := true
	if s.backup.lastSuccess > 0 {
		stale = now-s.backup.lastSuccess > maxAge.Milliseconds()
	}

	return BackupStatus{
		LastRun:             s.backup.lastRun,
		LastSuccess:         s.backup.lastSuccess,
		LastFailure:         s.backup.lastFailure,
		IsStale:             stale,
		StaleThresholdHours: s.thresholds.BackupMaxAgeHours,
		RecentFailures:      lastN(s.backup.failures, 5),
	}
}
