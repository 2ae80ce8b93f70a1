package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/pkg/logger"
)

func TestBatchManagerFlushesOnSize(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]*alert.Alert

	b := newBatchManager(2, time.Hour, logger.NewDefault("test"), func(ctx context.Context, channel string, alerts []*alert.Alert) {
		mu.Lock()
		flushed = append(flushed, alerts)
		mu.Unlock()
	})

	b.Add("email", alert.New("r", "m1", alert.SeverityInfo, "p", "Program", ""))
	mu.Lock()
	require.Empty(t, flushed)
	mu.Unlock()

	b.Add("email", alert.New("r", "m2", alert.SeverityInfo, "p", "Program", ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0], 2)
}

func TestBatchManagerFlushesOnTimeout(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]*alert.Alert

	b := newBatchManager(10, 20*time.Millisecond, logger.NewDefault("test"), func(ctx context.Context, channel string, alerts []*alert.Alert) {
		mu.Lock()
		flushed = append(flushed, alerts)
		mu.Unlock()
	})

	b.Add("slack", alert.New("r", "m", alert.SeverityInfo, "p", "Program", ""))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushed) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBatchManagerShutdownFlushesAllPendingChannels(t *testing.T) {
	var mu sync.Mutex
	flushedChannels := make(map[string]int)

	b := newBatchManager(10, time.Hour, logger.NewDefault("test"), func(ctx context.Context, channel string, alerts []*alert.Alert) {
		mu.Lock()
		flushedChannels[channel] = len(alerts)
		mu.Unlock()
	})

	b.Add("email", alert.New("r", "m", alert.SeverityInfo, "p", "Program", ""))
	b.Add("slack", alert.New("r", "m", alert.SeverityInfo, "p", "Program", ""))

	b.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, flushedChannels["email"])
	assert.Equal(t, 1, flushedChannels["slack"])
}
