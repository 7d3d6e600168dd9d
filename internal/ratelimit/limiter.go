package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// Limiter counts requests per key over a fixed window.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) Decision
	Close()
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	entries map[string]windowState
	now     func() time.Time // injectable for deterministic tests
	stopCh  chan struct{}
	once    sync.Once
}

type windowState struct {
	count     int
	windowEnd time.Time
}

// NewMemory returns an in-process limiter. Expired windows are swept
// periodically until Close.
func NewMemory() Limiter {
	l := &memoryLimiter{
		entries: make(map[string]windowState),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

func (l *memoryLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.entries[key]
	if !ok || now.After(state.windowEnd) {
		state = windowState{count: 1, windowEnd: now.Add(window)}
		l.entries[key] = state
		return Decision{Allowed: true, Count: 1, WindowEnd: state.windowEnd}
	}
	if state.count >= limit {
		return Decision{Allowed: false, Count: state.count, WindowEnd: state.windowEnd}
	}
	state.count++
	l.entries[key] = state
	return Decision{Allowed: true, Count: state.count, WindowEnd: state.windowEnd}
}

func (l *memoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(l.now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *memoryLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, state := range l.entries {
		if now.After(state.windowEnd) {
			delete(l.entries, key)
		}
	}
}

func (l *memoryLimiter) Close() {
	l.once.Do(func() { close(l.stopCh) })
}
