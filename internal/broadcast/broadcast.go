// Package broadcast is a non-blocking, drop-oldest multi-producer
// multi-consumer fan-out used by the engine's alert channel and the
// subscriber's event channel.
package broadcast

import (
	"sync"
	"sync/atomic"
)

// Bus fans a stream of values of type T out to any number of subscribers.
// Publish never blocks: a subscriber that falls behind has its oldest
// buffered value evicted to make room for the new one, rather than
// stalling the publisher.
type Bus[T any] struct {
	mu       sync.RWMutex
	capacity int
	subs     map[chan T]struct{}
	drops    map[chan T]*atomic.Int64
}

// New creates a Bus whose per-subscriber buffer holds capacity values.
func New[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bus[T]{
		capacity: capacity,
		subs:     make(map[chan T]struct{}),
		drops:    make(map[chan T]*atomic.Int64),
	}
}

// Publish delivers v to every current subscriber. A subscriber whose
// buffer is full has its oldest value dropped to make room; the drop is
// counted and observable via DroppedFor.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
				if counter := b.drops[ch]; counter != nil {
					counter.Add(1)
				}
			default:
			}
			select {
			case ch <- v:
			default:
				// Another goroutine raced us for the slot we just freed;
				// the subscriber will simply see the next publish.
			}
		}
	}
}

// Subscribe returns a fresh receive channel. The caller must Unsubscribe
// when done to avoid leaking the channel and its goroutine-side buffer.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.capacity)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.drops[ch] = &atomic.Int64{}
	return ch
}

// Unsubscribe removes and closes a subscription. Safe to call more than
// once for the same channel.
func (b *Bus[T]) Unsubscribe(recv <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		if (<-chan T)(ch) == recv {
			delete(b.subs, ch)
			delete(b.drops, ch)
			close(ch)
			return
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// DroppedFor reports how many values have been evicted for the given
// subscription due to a full buffer. Returns 0, false if recv is not a
// live subscription.
func (b *Bus[T]) DroppedFor(recv <-chan T) (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, counter := range b.drops {
		if (<-chan T)(ch) == recv {
			return counter.Load(), true
		}
	}
	return 0, false
}
