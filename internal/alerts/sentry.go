package alerts

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentrySink forwards critical alerts to Sentry as error events. Warnings are
// ignored — Sentry is the escalation channel, not the firehose.
type SentrySink struct {
	hub *sentry.Hub
}

// NewSentrySink initialises the Sentry client with dsn and returns a sink
// ready to subscribe to the bus.
func NewSentrySink(dsn string) (*SentrySink, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: false,
		ServerName:       "telemetry",
	})
	if err != nil {
		return nil, fmt.Errorf("alerts: init sentry client: %w", err)
	}
	return &SentrySink{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Notify reports a to Sentry if it is critical.
func (s *SentrySink) Notify(a Alert) {
	if a.Severity != SeverityCritical {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("alert_type", a.Type)
		scope.SetExtra("alert_id", a.ID)
		if a.Details != nil {
			scope.SetExtra("details", a.Details)
		}
		s.hub.CaptureMessage(a.Message)
	})
}

// Close flushes buffered events. Called during shutdown.
func (s *SentrySink) Close() {
	s.hub.Flush(2 * time.Second)
}
