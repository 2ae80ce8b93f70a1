package subscriber

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainwatch/watchtower/domain/event"
)

func testProgram() ProgramConfig {
	return ProgramConfig{ID: "prog1", Name: "Example DEX", MonitorTransactions: true}
}

func TestEventFilterRejectsUnmonitoredProgram(t *testing.T) {
	f := NewEventFilter([]ProgramConfig{testProgram()}, true, true)
	evt := event.New("other", "Other Program", event.KindTransaction, event.Payload{
		Transaction: &event.TransactionData{Success: true},
	})
	assert.False(t, f.Accepts(evt))
}

func TestEventFilterRejectsFailedWhenNotIncluded(t *testing.T) {
	f := NewEventFilter([]ProgramConfig{testProgram()}, false, true)
	evt := event.New("prog1", "Example DEX", event.KindTransaction, event.Payload{
		Transaction: &event.TransactionData{Success: false},
	})
	assert.False(t, f.Accepts(evt))
}

func TestEventFilterAcceptsFailedWhenIncluded(t *testing.T) {
	f := NewEventFilter([]ProgramConfig{testProgram()}, true, true)
	evt := event.New("prog1", "Example DEX", event.KindTransaction, event.Payload{
		Transaction: &event.TransactionData{Success: false},
	})
	assert.True(t, f.Accepts(evt))
}

func TestEventFilterRejectsVotesWhenNotIncluded(t *testing.T) {
	f := NewEventFilter([]ProgramConfig{{ID: votesProgramID, Name: "Vote Program"}}, true, false)
	evt := event.New(votesProgramID, "Vote Program", event.KindTransaction, event.Payload{
		Transaction: &event.TransactionData{Success: true},
	})
	assert.False(t, f.Accepts(evt))
}

func TestEventFilterAcceptsNonTransactionKinds(t *testing.T) {
	f := NewEventFilter([]ProgramConfig{testProgram()}, false, true)
	evt := event.New("prog1", "Example DEX", event.KindAccountChange, event.Payload{
		AccountChange: &event.AccountChangeData{Account: "a"},
	})
	assert.True(t, f.Accepts(evt))
}
