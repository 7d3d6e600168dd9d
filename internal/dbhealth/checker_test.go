package dbhealth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bisman/telemetry/internal/config"
	"github.com/bisman/telemetry/internal/metrics"
)

// fakePool scripts ping outcomes. Stat is nil, as a fake pool has no
// pgx-internal state to report.
type fakePool struct {
	errs  []error
	calls int
}

func (f *fakePool) Ping(ctx context.Context) error {
	err := f.errs[f.calls%len(f.errs)]
	f.calls++
	return err
}

func (f *fakePool) Stat() *pgxpool.Stat { return nil }

func TestCheck_PingFailureRecordsError(t *testing.T) {
	store := metrics.New(config.DefaultThresholds())
	c := NewChecker(&fakePool{errs: []error{errors.New("dial tcp: refused")}}, store, time.Minute)

	c.check(context.Background())

	h := store.DBHealth()
	if h.Healthy {
		t.Error("Healthy: got true after failed ping")
	}
	if h.RecentErrorCount != 1 {
		t.Errorf("RecentErrorCount: got %d, want 1", h.RecentErrorCount)
	}
	if h.Errors[0].Context["op"] != "ping" {
		t.Errorf("error context: got %+v", h.Errors[0].Context)
	}
}

func TestCheck_PingSuccessRestoresHealth(t *testing.T) {
	store := metrics.New(config.DefaultThresholds())
	c := NewChecker(&fakePool{errs: []error{errors.New("refused"), nil}}, store, time.Minute)

	c.check(context.Background())
	c.check(context.Background())

	h := store.DBHealth()
	if !h.Healthy {
		t.Error("Healthy: got false after successful ping")
	}
	if h.LastHealthCheck == 0 {
		t.Error("LastHealthCheck: not stamped")
	}
}

func TestObserveQuery_RecordsDuration(t *testing.T) {
	store := metrics.New(config.DefaultThresholds())

	wantErr := errors.New("no rows")
	err := ObserveQuery(store, "SELECT * FROM widgets", func() error {
		time.Sleep(2 * time.Millisecond)
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("err: got %v, want %v", err, wantErr)
	}
	h := store.DBHealth()
	if h.AvgQueryDurationMs < 1 {
		t.Errorf("AvgQueryDurationMs: got %v, want >= 1", h.AvgQueryDurationMs)
	}
}
