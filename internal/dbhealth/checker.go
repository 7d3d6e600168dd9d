package dbhealth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bisman/telemetry/internal/metrics"
)

// pingTimeout bounds one health check round trip.
const pingTimeout = 5 * time.Second

// Pool is the slice of pgxpool.Pool the checker needs. Tests substitute a
// fake; a fake may return a nil Stat.
type Pool interface {
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
}

// Checker pings the connection pool on an interval, feeding the results into
// the store: a failed ping records a connection error (which can fire the
// database alert), a successful one restores health and refreshes the pool
// occupancy stats.
type Checker struct {
	pool     Pool
	store    *metrics.Store
	interval time.Duration
}

// NewChecker creates a Checker pinging pool every interval.
func NewChecker(pool Pool, store *metrics.Store, interval time.Duration) *Checker {
	return &Checker{pool: pool, store: store, interval: interval}
}

// Connect opens a pgx connection pool for dsn and verifies it once.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbhealth: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbhealth: initial ping: %w", err)
	}
	return pool, nil
}

// Run checks immediately, then on every tick until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	c.check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Checker) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		c.store.RecordDBConnectionError(err, map[string]string{"op": "ping"})
		return
	}
	c.store.RecordDBConnectionSuccess()

	if stat := c.pool.Stat(); stat != nil {
		c.store.UpdateDBPoolStats(int(stat.TotalConns()), int(stat.MaxConns()))
	}
}

// ObserveQuery times fn as one labeled database query. The duration is
// recorded whether or not fn fails; the error is returned unchanged.
func ObserveQuery(store *metrics.Store, label string, fn func() error) error {
	start := time.Now()
	err := fn()
	store.RecordDBQueryDuration(time.Since(start), label, nil)
	return err
}
