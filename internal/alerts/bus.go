package alerts

import (
	"log/slog"
	"sync"
)

// subscriberBuf is the per-subscriber queue depth. When a subscriber falls
// this far behind, further alerts are dropped for it (with a logged warning)
// rather than blocking the recording path.
const subscriberBuf = 64

// Bus fans alerts out to subscribers. Each subscriber gets its own bounded
// queue drained by a dedicated goroutine, so one slow consumer cannot stall
// the others or the publisher.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscriber
	closed bool
	wg     sync.WaitGroup
}

type subscriber struct {
	name string
	ch   chan Alert
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn under name and starts its delivery goroutine.
// fn runs on that goroutine only; a panic inside fn is caught and logged so
// one bad consumer cannot take the bus down.
func (b *Bus) Subscribe(name string, fn func(Alert)) {
	sub := &subscriber{name: name, ch: make(chan Alert, subscriberBuf)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.subs = append(b.subs, sub)
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		for a := range sub.ch {
			deliver(sub.name, fn, a)
		}
	}()
}

// Publish enqueues a for every subscriber without blocking. Alerts for a
// full queue are dropped.
func (b *Bus) Publish(a Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- a:
		default:
			slog.Warn("alerts: subscriber queue full — dropping alert",
				"subscriber", sub.name, "type", a.Type)
		}
	}
}

// Close stops accepting alerts, drains the queues, and waits for all
// delivery goroutines to finish.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

func deliver(name string, fn func(Alert), a Alert) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("alerts: subscriber panicked", "subscriber", name, "panic", r)
		}
	}()
	fn(a)
}

// LogSink returns a subscriber that writes every alert to the default
// structured logger. Criticals log at error level, everything else warns.
func LogSink() func(Alert) {
	return func(a Alert) {
		if a.Severity == SeverityCritical {
			slog.Error("alert", "type", a.Type, "message", a.Message)
			return
		}
		slog.Warn("alert", "type", a.Type, "message", a.Message)
	}
}
