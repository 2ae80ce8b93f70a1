// Package rule defines the Rule interface the engine evaluates against
// every incoming event, and the context/result types that interface trades
// in.
package rule

import (
	"time"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/metrics"
)

// Rule is a named, versioned detector. Evaluate must be pure with respect
// to engine state — it may only consult the RuleContext it is handed — and
// must complete within the engine's configured per-rule timeout.
type Rule interface {
	Name() string
	Description() string
	Enabled() bool
	Evaluate(evt *event.ProgramEvent, ctx *Context) (Result, error)
}

// Context is the immutable snapshot handed to every rule for one
// evaluation.
type Context struct {
	// RecentEvents is the age- and size-trimmed history for the event's
	// program, most recent last.
	RecentEvents []*event.ProgramEvent
	// Metrics is the metrics snapshot taken at the start of this
	// process_event call.
	Metrics metrics.Snapshot
	// Config is reserved for future per-rule configuration injection.
	Config map[string]interface{}
	// Timestamp is the snapshot's construction time.
	Timestamp time.Time
}

// Result is produced by every rule evaluation.
type Result struct {
	Triggered        bool
	Severity         alert.Severity
	Message          string
	Confidence       float64
	Metadata         map[string]interface{}
	SuggestedActions []string
	RuleName         string
	Timestamp        time.Time
}

// NotTriggered is a convenience constructor for the common non-firing
// result.
func NotTriggered(ruleName string) Result {
	return Result{RuleName: ruleName, Timestamp: time.Now().UTC()}
}

// Triggered builds a firing Result.
func Triggered(ruleName string, severity alert.Severity, message string) Result {
	return Result{
		Triggered: true,
		Severity:  severity,
		Message:   message,
		RuleName:  ruleName,
		Metadata:  make(map[string]interface{}),
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata attaches a key/value pair and returns the Result for
// chaining.
func (r Result) WithMetadata(key string, value interface{}) Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}

// WithConfidence sets the confidence score and returns the Result for
// chaining.
func (r Result) WithConfidence(confidence float64) Result {
	r.Confidence = confidence
	return r
}

// WithSuggestedActions sets remediation suggestions and returns the Result
// for chaining.
func (r Result) WithSuggestedActions(actions ...string) Result {
	r.SuggestedActions = actions
	return r
}
