package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New[int](4)
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(1)

	select {
	case v := <-a:
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber a got nothing")
	}
	select {
	case v := <-c:
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber c got nothing")
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := New[int](2)
	slow := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The slow subscriber should see only the most recent values, having
	// had its oldest buffered entries evicted.
	last := -1
	for {
		select {
		case v := <-slow:
			last = v
		default:
			assert.Equal(t, 99, last)
			return
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New[int](1)
	ch := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.SubscriberCount())

	_, ok := <-ch
	assert.False(t, ok)
}

func TestDroppedForCountsEvictions(t *testing.T) {
	b := New[int](1)
	ch := b.Subscribe()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	dropped, ok := b.DroppedFor(ch)
	require.True(t, ok)
	assert.Equal(t, int64(2), dropped)
}
