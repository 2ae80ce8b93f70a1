package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowBasicStats(t *testing.T) {
	w := NewSlidingWindow(time.Minute, 100)
	w.Add(10)
	w.Add(20)
	w.Add(30)

	stats, ok := w.Stats()
	require.True(t, ok)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 20.0, stats.Mean)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 30.0, stats.Max)
	assert.Equal(t, 60.0, stats.Sum)
}

func TestSlidingWindowEmptyHasNoStats(t *testing.T) {
	w := NewSlidingWindow(time.Minute, 100)
	_, ok := w.Stats()
	assert.False(t, ok)
}

func TestSlidingWindowPercentilesAndStdDev(t *testing.T) {
	w := NewSlidingWindow(time.Hour, 1000)
	for i := 1; i <= 10; i++ {
		w.Add(float64(i))
	}

	stats, ok := w.Stats()
	require.True(t, ok)
	assert.Equal(t, 5.5, stats.Mean)
	assert.InDelta(t, 2.8722813232690143, stats.StdDev, 1e-9)
	assert.Equal(t, 5.0, stats.Percentiles["50"])
	assert.Equal(t, 9.0, stats.Percentiles["90"])
	assert.Equal(t, 9.0, stats.Percentiles["95"])
	assert.Equal(t, 10.0, stats.Percentiles["99"])
}

func TestSlidingWindowTrimsByMaxPoints(t *testing.T) {
	w := NewSlidingWindow(time.Hour, 3)
	w.Add(1)
	w.Add(2)
	w.Add(3)
	w.Add(4)

	values := w.Values()
	assert.Equal(t, []float64{2, 3, 4}, values)
}

func TestSlidingWindowTrimsByAge(t *testing.T) {
	w := NewSlidingWindow(20*time.Millisecond, 100)
	w.Add(1)
	time.Sleep(30 * time.Millisecond)
	w.Add(2)

	values := w.Values()
	assert.Equal(t, []float64{2}, values)
}
