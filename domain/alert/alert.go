package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert is the engine's externalized version of a triggered RuleResult.
// It is immutable after creation except for the Acknowledged/Resolved
// state transitions an AlertManager may apply.
type Alert struct {
	ID                string
	RuleName          string
	Message           string
	Severity          Severity
	ProgramID         string
	ProgramName       string
	EventID           string
	Metadata          map[string]interface{}
	Confidence        float64
	SuggestedActions  []string
	Timestamp         time.Time
	Acknowledged      bool
	Resolved          bool
}

// New builds an Alert from a triggering rule name/message/severity and the
// event that produced it. Confidence, metadata, and suggested actions are
// filled in by the caller afterward (the engine copies them straight from
// the RuleResult).
func New(ruleName, message string, severity Severity, programID, programName, eventID string) *Alert {
	return &Alert{
		ID:          uuid.NewString(),
		RuleName:    ruleName,
		Message:     message,
		Severity:    severity,
		ProgramID:   programID,
		ProgramName: programName,
		EventID:     eventID,
		Metadata:    make(map[string]interface{}),
		Timestamp:   time.Now().UTC(),
	}
}

// Clone returns a shallow-safe copy suitable for handing to multiple
// subscribers without risking a data race on the metadata map.
func (a *Alert) Clone() *Alert {
	c := *a
	c.Metadata = make(map[string]interface{}, len(a.Metadata))
	for k, v := range a.Metadata {
		c.Metadata[k] = v
	}
	c.SuggestedActions = append([]string(nil), a.SuggestedActions...)
	return &c
}

// Acknowledge marks the alert acknowledged. Resolved alerts may still be
// acknowledged; the two flags are independent.
func (a *Alert) Acknowledge() {
	a.Acknowledged = true
}

// Resolve marks the alert resolved.
func (a *Alert) Resolve() {
	a.Resolved = true
}
