package ws

import (
	"fmt"
	"sync"
	"testing"
)

// A slow client whose buffer fills while the summary tick and the alert bus
// broadcast at the same time must be disconnected cleanly, never crash a
// broadcaster with a send on its closed channel.
func TestBroadcast_ConcurrentDisconnectIsSafe(t *testing.T) {
	h := &Hub{clients: make(map[*client]struct{})}

	for i := 0; i < 200; i++ {
		c := &client{send: make(chan []byte, 1)}
		c.send <- []byte("stale") // buffer already full
		h.register(c)

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.broadcast([]byte(fmt.Sprintf("msg-%d", i)))
			}()
		}
		wg.Wait()

		if !c.closed {
			t.Fatalf("iteration %d: full client still open after broadcast", i)
		}
	}

	if n := h.Count(); n != 0 {
		t.Errorf("clients after disconnects: got %d, want 0", n)
	}
}

func TestUnregister_Idempotent(t *testing.T) {
	h := &Hub{clients: make(map[*client]struct{})}
	c := &client{send: make(chan []byte, 1)}
	h.register(c)

	h.unregister(c)
	h.unregister(c) // second disconnect must not close the channel again

	if _, ok := <-c.send; ok {
		t.Error("send channel not closed after unregister")
	}
}
