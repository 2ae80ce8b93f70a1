package subscriber

import "github.com/chainwatch/watchtower/domain/event"

// votesProgramID is the chain's canonical vote program; vote activity is
// dropped by default since it is high-volume and rarely of interest to
// alerting rules.
const votesProgramID = "Vote111111111111111111111111111111111111111"

// EventFilter applies the configured monitored-program set and the
// include_failed/include_votes flags to every accepted event, client-side,
// as defense in depth against the server-side subscription parameters.
type EventFilter struct {
	programs      map[string]ProgramConfig
	includeFailed bool
	includeVotes  bool
}

// NewEventFilter builds a filter from the configured program list.
func NewEventFilter(programs []ProgramConfig, includeFailed, includeVotes bool) *EventFilter {
	byID := make(map[string]ProgramConfig, len(programs))
	for _, p := range programs {
		byID[p.ID] = p
	}
	return &EventFilter{programs: byID, includeFailed: includeFailed, includeVotes: includeVotes}
}

// ProgramConfig returns the configuration for a monitored program id, if
// configured.
func (f *EventFilter) ProgramConfig(programID string) (ProgramConfig, bool) {
	p, ok := f.programs[programID]
	return p, ok
}

// Accepts reports whether evt should be delivered downstream.
func (f *EventFilter) Accepts(evt *event.ProgramEvent) bool {
	if _, monitored := f.programs[evt.ProgramID]; !monitored {
		return false
	}
	if !f.includeFailed {
		if success, known := evt.Successful(); known && !success {
			return false
		}
	}
	if !f.includeVotes && evt.ProgramID == votesProgramID {
		return false
	}
	return true
}
