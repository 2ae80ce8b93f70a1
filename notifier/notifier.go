// Package notifier turns engine alerts into outbound notifications across
// email, Telegram, Slack, and Discord, applying severity/filter policy and
// per-channel rate limiting before dispatch.
package notifier

import (
	"context"
	"sync"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/internal/ratelimit"
	"github.com/chainwatch/watchtower/notifier/channels"
	"github.com/chainwatch/watchtower/pkg/logger"
)

// Statistics summarizes a Notifier's lifetime delivery activity.
type Statistics struct {
	TotalSent        uint64
	TotalFailed      uint64
	TotalRateLimited uint64
	PerChannelSent   map[string]uint64
	PerChannelFailed map[string]uint64
}

// Notifier is the dispatch pipeline from triggered alerts to configured
// channels.
type Notifier struct {
	config   Config
	log      *logger.Logger
	channels map[string]Channel
	limiters map[string]*ratelimit.Limiter
	batch    *batchManager

	statsMu sync.Mutex
	stats   Statistics
}

// New builds a Notifier from cfg, constructing one Channel implementation
// per enabled channel and, when batching is enabled, a batch manager that
// flushes on size or timeout.
func New(cfg Config, log *logger.Logger) (*Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault("notifier")
	}

	n := &Notifier{
		config:   cfg,
		log:      log,
		channels: make(map[string]Channel),
		limiters: make(map[string]*ratelimit.Limiter),
		stats: Statistics{
			PerChannelSent:   make(map[string]uint64),
			PerChannelFailed: make(map[string]uint64),
		},
	}

	if cfg.Email.Enabled {
		n.channels["email"] = channels.NewEmailChannel(cfg.Email)
	}
	if cfg.Telegram.Enabled {
		n.channels["telegram"] = channels.NewTelegramChannel(cfg.Telegram)
	}
	if cfg.Slack.Enabled {
		n.channels["slack"] = channels.NewSlackChannel(cfg.Slack)
	}
	if cfg.Discord.Enabled {
		n.channels["discord"] = channels.NewDiscordChannel(cfg.Discord)
	}

	for name := range n.channels {
		n.limiters[name] = ratelimit.New(cfg.RateLimit.toRatelimit())
	}

	if cfg.EnableBatching {
		n.batch = newBatchManager(cfg.BatchSize, cfg.BatchTimeout, log, n.dispatchBatch)
	}

	return n, nil
}

// Notify routes a to every channel its severity and filter rules resolve
// to. Each channel's delivery is independent: a failure or rate limit on
// one channel does not block delivery on another. For a channel that
// batches, the rate limit is not checked here: it is checked once per
// flush in dispatchBatch, so a full batch costs one token rather than
// one per queued alert.
func (n *Notifier) Notify(ctx context.Context, a *alert.Alert) {
	targets := n.config.resolveChannels(a)
	for _, name := range targets {
		ch, ok := n.channels[name]
		if !ok {
			continue
		}

		if n.batch != nil && ch.SupportsBatching() {
			n.batch.Add(name, a)
			continue
		}

		if !n.limiters[name].Allow() {
			n.recordRateLimited(1)
			n.log.WithField("channel", name).WithField("alert_id", a.ID).Warn("alert rate limited")
			continue
		}

		n.send(ctx, name, ch, a)
	}
}

func (n *Notifier) send(ctx context.Context, name string, ch Channel, a *alert.Alert) {
	if err := ch.Send(ctx, a); err != nil {
		n.recordFailed(name)
		n.log.WithField("channel", name).WithField("error", err).Error("notification send failed")
		return
	}
	n.recordSent(name)
}

// dispatchBatch is the batch manager's flush callback: it sends via
// SendBatch when the channel supports it, otherwise one Send call per
// alert, and records statistics either way. For a batching-capable
// channel the rate limit is checked once for the whole flush: a denied
// token drops the entire batch rather than partially sending it.
func (n *Notifier) dispatchBatch(ctx context.Context, name string, alerts []*alert.Alert) {
	ch, ok := n.channels[name]
	if !ok {
		return
	}

	if ch.SupportsBatching() {
		if !n.limiters[name].Allow() {
			n.recordRateLimited(len(alerts))
			n.log.WithField("channel", name).WithField("count", len(alerts)).Warn("batch rate limited")
			return
		}
		if err := ch.SendBatch(ctx, alerts); err != nil {
			n.recordFailedN(name, len(alerts))
			n.log.WithField("channel", name).WithField("error", err).Error("batch send failed")
			return
		}
		n.recordSentN(name, len(alerts))
		return
	}

	for _, a := range alerts {
		if !n.limiters[name].Allow() {
			n.recordRateLimited(1)
			n.log.WithField("channel", name).WithField("alert_id", a.ID).Warn("alert rate limited")
			continue
		}
		n.send(ctx, name, ch, a)
	}
}

// TestChannels probes every configured channel and returns the set of
// channel names that failed, each paired with its error.
func (n *Notifier) TestChannels(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for name, ch := range n.channels {
		if err := ch.Test(ctx); err != nil {
			results[name] = err
		}
	}
	return results
}

// Statistics returns a snapshot of lifetime delivery counters.
func (n *Notifier) Statistics() Statistics {
	n.statsMu.Lock()
	defer n.statsMu.Unlock()
	snap := Statistics{
		TotalSent:        n.stats.TotalSent,
		TotalFailed:      n.stats.TotalFailed,
		TotalRateLimited: n.stats.TotalRateLimited,
		PerChannelSent:   make(map[string]uint64, len(n.stats.PerChannelSent)),
		PerChannelFailed: make(map[string]uint64, len(n.stats.PerChannelFailed)),
	}
	for k, v := range n.stats.PerChannelSent {
		snap.PerChannelSent[k] = v
	}
	for k, v := range n.stats.PerChannelFailed {
		snap.PerChannelFailed[k] = v
	}
	return snap
}

// Shutdown flushes any pending batches. Safe to call even when batching is
// disabled.
func (n *Notifier) Shutdown() {
	if n.batch != nil {
		n.batch.Shutdown()
	}
}

func (n *Notifier) recordSent(channel string) { n.recordSentN(channel, 1) }

func (n *Notifier) recordSentN(channel string, count int) {
	n.statsMu.Lock()
	n.stats.TotalSent += uint64(count)
	n.stats.PerChannelSent[channel] += uint64(count)
	n.statsMu.Unlock()
}

func (n *Notifier) recordFailed(channel string) { n.recordFailedN(channel, 1) }

func (n *Notifier) recordFailedN(channel string, count int) {
	n.statsMu.Lock()
	n.stats.TotalFailed += uint64(count)
	n.stats.PerChannelFailed[channel] += uint64(count)
	n.statsMu.Unlock()
}

func (n *Notifier) recordRateLimited(count int) {
	n.statsMu.Lock()
	n.stats.TotalRateLimited += uint64(count)
	n.statsMu.Unlock()
}
