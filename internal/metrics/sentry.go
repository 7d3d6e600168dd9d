package metrics

import "time"

// SentryMetrics is the issue-tracker summary returned by
// (*Store).SentryMetrics. UnresolvedCount is a lifetime counter pushed by the
// poller, not a windowed statistic.
type SentryMetrics struct {
	NewIssuesCount  int           `json:"newIssuesCount"`
	UnresolvedCount int           `json:"unresolvedCount"`
	RecentIssues    []SentryIssue `json:"recentIssues"`
}

// RecordSentryIssue appends an issue signal to the bounded ring. The
// timestamp is assigned by the store.
func (s *Store) RecordSentryIssue(issue SentryIssue) {
	issue.Timestamp = s.nowMs()

	s.mu.Lock()
	s.sentry.issues = append(s.sentry.issues, issue)
	if len(s.sentry.issues) > sentryIssueCap {
		s.sentry.issues = s.sentry.issues[1:]
	}
	s.mu.Unlock()
}

// UpdateSentryUnresolvedCount replaces the unresolved-issue gauge.
func (s *Store) UpdateSentryUnresolvedCount(count int) {
	s.mu.Lock()
	s.sentry.unresolved = count
	s.mu.Unlock()
}

// SentryMetrics returns the issue summary for the trailing window. A
// non-positive window selects the default (1 hour).
func (s *Store) SentryMetrics(window time.Duration) SentryMetrics {
	if window <= 0 {
		window = DefaultSentryWindow
	}
	cut := cutoff(s.now(), window)

	s.mu.Lock()
	defer s.mu.Unlock()

	var recent []SentryIssue
	for _, i := range s.sentry.issues {
		if i.Timestamp > cut {
			recent = append(recent, i)
		}
	}
	return SentryMetrics{
		NewIssuesCount:  len(recent),
		UnresolvedCount: s.sentry.unresolved,
		RecentIssues:    lastN(recent, 10),
	}
}
