// Package ratelimit provides the per-channel token bucket used by the
// notifier before dispatching to a transport.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Config describes one channel's quota.
type Config struct {
	// MaxMessagesPerMinute is the sustained rate; 0 disables limiting.
	MaxMessagesPerMinute int
	// BurstSize is the number of messages allowed instantaneously on top
	// of the sustained rate.
	BurstSize int
}

// DefaultConfig returns a permissive but non-zero quota.
func DefaultConfig() Config {
	return Config{MaxMessagesPerMinute: 60, BurstSize: 10}
}

// Limiter is a per-channel token bucket built on golang.org/x/time/rate.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	cfg     Config
}

// New builds a Limiter from cfg. A MaxMessagesPerMinute of 0 makes Allow
// always return true (limiting disabled for this channel).
//
// The bucket's instantaneous capacity is MaxMessagesPerMinute+BurstSize: the
// quota itself is always available as a burst (a bucket that only ever held
// BurstSize tokens could reject the very first message of a fresh minute),
// with BurstSize layered on top for short spikes above the sustained rate.
func New(cfg Config) *Limiter {
	if cfg.MaxMessagesPerMinute <= 0 {
		return &Limiter{cfg: cfg}
	}
	perSecond := float64(cfg.MaxMessagesPerMinute) / 60.0
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), capacity(cfg)),
		cfg:     cfg,
	}
}

func capacity(cfg Config) int {
	c := cfg.MaxMessagesPerMinute + cfg.BurstSize
	if c <= 0 {
		c = 1
	}
	return c
}

// Allow consumes one token if available. It never blocks: a caller that
// finds no tokens available must count the message as rate-limited and
// skip the channel, per spec — no queueing, no retry.
func (l *Limiter) Allow() bool {
	if l.limiter == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limiter.Allow()
}

// Reset rebuilds the underlying bucket at full capacity, used by tests and
// by channel reconfiguration.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.MaxMessagesPerMinute <= 0 {
		return
	}
	perSecond := float64(l.cfg.MaxMessagesPerMinute) / 60.0
	l.limiter = rate.NewLimiter(rate.Limit(perSecond), capacity(l.cfg))
}
