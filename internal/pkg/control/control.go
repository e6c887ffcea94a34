// Package control fans a single control signal out to every long-lived
// task. It is the only cross-task cancellation mechanism: a task observes
// shutdown either by receiving Shutdown or by its receiver being closed.
package control

import "sync"

type Signal int

const (
	Shutdown Signal = iota
)

func (s Signal) String() string {
	switch s {
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

const DefaultCapacity = 16

// Broadcaster is a single sender with any number of receivers.
type Broadcaster struct {
	mu       sync.Mutex
	subs     []chan Signal
	capacity int
	closed   bool
}

func NewBroadcaster(capacity int) *Broadcaster {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Broadcaster{capacity: capacity}
}

// Subscribe returns a new receiver. Receivers created after Close are
// already closed.
func (b *Broadcaster) Subscribe() <-chan Signal {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Signal, b.capacity)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Send delivers sig to every receiver without blocking and returns how
// many received it. A receiver whose buffer is full misses the signal.
func (b *Broadcaster) Send(sig Signal) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- sig:
			delivered++
		default:
		}
	}
	return delivered
}

// Close closes every receiver. Safe to call more than once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Shutdown sends Shutdown and then closes all receivers, so even a
// receiver with a full buffer observes it.
func (b *Broadcaster) Shutdown() {
	b.Send(Shutdown)
	b.Close()
}
