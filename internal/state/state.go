// Package state holds the per-panel application state that the TUI and the
// HTTP API read. Each container owns its goroutines, guards its state with a
// mutex and hands out copies.
package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is how many transitions a slow subscriber may lag before
// the oldest pending one is dropped.
const subscriberBuffer = 32

// hub fans state values out to subscribers in publish order.
type hub[T any] struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan T
}

// subscribe registers a subscriber primed with current. Callers hold their
// own state lock so no publish can slip in between reading current and
// registering. The channel closes when ctx is done.
func (h *hub[T]) subscribe(ctx context.Context, current T) <-chan T {
	ch := make(chan T, subscriberBuffer)
	ch <- current

	id := uuid.New()
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[uuid.UUID]chan T)
	}
	h.subs[id] = ch
	h.mu.Unlock()

	context.AfterFunc(ctx, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	})
	return ch
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		send(ch, v)
	}
}

// send never blocks; a full channel loses its oldest value.
func send[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (h *hub[T]) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
