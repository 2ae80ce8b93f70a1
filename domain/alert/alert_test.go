package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityTotalOrder(t *testing.T) {
	assert.True(t, SeverityCritical > SeverityHigh)
	assert.True(t, SeverityHigh > SeverityMedium)
	assert.True(t, SeverityMedium > SeverityLow)
	assert.True(t, SeverityLow > SeverityInfo)
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityHigh.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.True(t, SeverityMedium.AtLeast(SeverityMedium))
}

func TestParseSeverityRoundTrips(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		parsed, ok := ParseSeverity(s.String())
		require.True(t, ok)
		assert.Equal(t, s, parsed)
	}
}

func TestParseSeverityRejectsUnknown(t *testing.T) {
	_, ok := ParseSeverity("extreme")
	assert.False(t, ok)
}

func TestNewAlertDefaults(t *testing.T) {
	a := New("large_transaction", "transaction exceeds threshold", SeverityHigh, "prog1", "Example DEX", "evt1")

	require.NotEmpty(t, a.ID)
	assert.False(t, a.Acknowledged)
	assert.False(t, a.Resolved)
	assert.False(t, a.Timestamp.IsZero())
}

func TestCloneIsIndependent(t *testing.T) {
	a := New("rule", "msg", SeverityLow, "p", "P", "e")
	a.Metadata["k"] = "v"
	a.SuggestedActions = []string{"investigate"}

	c := a.Clone()
	c.Metadata["k"] = "mutated"
	c.SuggestedActions[0] = "mutated"

	assert.Equal(t, "v", a.Metadata["k"])
	assert.Equal(t, "investigate", a.SuggestedActions[0])
}

func TestAcknowledgeAndResolveAreIndependent(t *testing.T) {
	a := New("rule", "msg", SeverityLow, "p", "P", "e")
	a.Acknowledge()
	assert.True(t, a.Acknowledged)
	assert.False(t, a.Resolved)

	a.Resolve()
	assert.True(t, a.Resolved)
}
