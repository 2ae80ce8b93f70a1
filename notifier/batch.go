package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/pkg/logger"
)

// batchManager accumulates alerts per channel and flushes on size or
// timeout, whichever comes first. A flush is authoritative: it always
// calls into send (batched or individual) before the pending queue is
// cleared, so a flush never silently discards alerts.
type batchManager struct {
	size    int
	timeout time.Duration
	send    func(ctx context.Context, channel string, alerts []*alert.Alert)
	log     *logger.Logger

	mu      sync.Mutex
	pending map[string][]*alert.Alert
	timers  map[string]*time.Timer

	closeOnce sync.Once
	closed    chan struct{}
}

func newBatchManager(size int, timeout time.Duration, log *logger.Logger, send func(ctx context.Context, channel string, alerts []*alert.Alert)) *batchManager {
	return &batchManager{
		size:    size,
		timeout: timeout,
		send:    send,
		log:     log,
		pending: make(map[string][]*alert.Alert),
		timers:  make(map[string]*time.Timer),
		closed:  make(chan struct{}),
	}
}

// Add queues a for delivery on channel, flushing immediately if the queue
// has reached size. A channel's first queued alert starts its flush timer.
func (b *batchManager) Add(channel string, a *alert.Alert) {
	b.mu.Lock()
	b.pending[channel] = append(b.pending[channel], a)
	full := len(b.pending[channel]) >= b.size
	if !full && b.timers[channel] == nil {
		b.timers[channel] = time.AfterFunc(b.timeout, func() { b.flush(channel) })
	}
	b.mu.Unlock()

	if full {
		b.flush(channel)
	}
}

// flush sends and clears whatever is pending for channel. Safe to call
// concurrently or redundantly; a channel with nothing pending is a no-op.
func (b *batchManager) flush(channel string) {
	b.mu.Lock()
	alerts := b.pending[channel]
	delete(b.pending, channel)
	if t, ok := b.timers[channel]; ok {
		t.Stop()
		delete(b.timers, channel)
	}
	b.mu.Unlock()

	if len(alerts) == 0 {
		return
	}
	b.send(context.Background(), channel, alerts)
}

// Shutdown flushes every channel with pending alerts so no queued alert is
// ever dropped on exit.
func (b *batchManager) Shutdown() {
	b.closeOnce.Do(func() {
		close(b.closed)
		b.mu.Lock()
		channels := make([]string, 0, len(b.pending))
		for ch := range b.pending {
			channels = append(channels, ch)
		}
		b.mu.Unlock()
		for _, ch := range channels {
			b.flush(ch)
		}
	})
}
