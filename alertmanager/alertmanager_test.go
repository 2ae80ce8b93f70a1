package alertmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/watchtower/domain/alert"
)

func newAlert(severity alert.Severity, program, rule string) *alert.Alert {
	return alert.New(rule, "triggered", severity, program, program, "evt-1")
}

func TestSendStoresAndBroadcasts(t *testing.T) {
	m := New()
	recv := m.Subscribe()
	defer m.Unsubscribe(recv)

	a := newAlert(alert.SeverityHigh, "prog1", "large_transaction")
	m.Send(a)

	got, ok := m.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, a, got)

	select {
	case published := <-recv:
		assert.Equal(t, a.ID, published.ID)
	default:
		t.Fatal("expected alert on broadcast channel")
	}
}

func TestListFiltersBySeverityAndProgram(t *testing.T) {
	m := New()
	m.Send(newAlert(alert.SeverityLow, "prog1", "r1"))
	m.Send(newAlert(alert.SeverityCritical, "prog1", "r2"))
	m.Send(newAlert(alert.SeverityCritical, "prog2", "r2"))

	high := alert.SeverityHigh
	got := m.List(Filter{ProgramID: "prog1", MinSeverity: &high})
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].RuleName)
}

func TestAcknowledgeAndResolve(t *testing.T) {
	m := New()
	a := newAlert(alert.SeverityMedium, "prog1", "r1")
	m.Send(a)

	assert.True(t, m.Acknowledge(a.ID))
	assert.True(t, m.Resolve(a.ID))
	assert.False(t, m.Acknowledge("missing"))

	got, _ := m.Get(a.ID)
	assert.True(t, got.Acknowledged)
	assert.True(t, got.Resolved)
}

func TestStatisticsCountsBySeverity(t *testing.T) {
	m := New()
	m.Send(newAlert(alert.SeverityHigh, "prog1", "r1"))
	m.Send(newAlert(alert.SeverityHigh, "prog1", "r2"))
	m.Send(newAlert(alert.SeverityLow, "prog1", "r3"))

	stats := m.Statistics()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.BySeverity["high"])
	assert.Equal(t, 1, stats.BySeverity["low"])
}

func TestCountReflectsAllRecordedAlerts(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.Count())
	m.Send(newAlert(alert.SeverityInfo, "prog1", "r1"))
	assert.Equal(t, 1, m.Count())
}
