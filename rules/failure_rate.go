package rules

import (
	"fmt"
	"time"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/domain/rule"
)

// failureRateHighFactor escalates the alert severity when the observed
// rate clears this multiple of the configured threshold.
const failureRateHighFactor = 1.5

// FailureRate scans the program's recent transaction history and triggers
// when, among at least MinCount qualifying transactions within
// WindowSeconds, the failed fraction is at least Pct percent.
type FailureRate struct {
	name    string
	enabled bool

	Pct           float64
	MinCount      int
	WindowSeconds int
}

func NewFailureRate(pct float64, minCount, windowSeconds int) *FailureRate {
	return &FailureRate{name: "failure_rate", enabled: true, Pct: pct, MinCount: minCount, WindowSeconds: windowSeconds}
}

func (r *FailureRate) Name() string        { return r.name }
func (r *FailureRate) Description() string { return "Flags an elevated transaction failure rate" }
func (r *FailureRate) Enabled() bool       { return r.enabled }
func (r *FailureRate) SetEnabled(v bool)   { r.enabled = v }

func (r *FailureRate) Evaluate(evt *event.ProgramEvent, ctx *rule.Context) (rule.Result, error) {
	cutoff := ctx.Timestamp.Add(-time.Duration(r.WindowSeconds) * time.Second)

	total, failed := 0, 0
	for _, e := range ctx.RecentEvents {
		if e.Payload.Transaction == nil {
			continue
		}
		if e.Timestamp.Before(cutoff) {
			continue
		}
		total++
		if !e.Payload.Transaction.Success {
			failed++
		}
	}

	if total < r.MinCount {
		return rule.NotTriggered(r.name), nil
	}

	rate := float64(failed) / float64(total)
	if rate < r.Pct/100.0 {
		return rule.NotTriggered(r.name), nil
	}

	severity := alert.SeverityMedium
	if rate >= (r.Pct/100.0)*failureRateHighFactor {
		severity = alert.SeverityHigh
	}

	return rule.Triggered(r.name, severity, fmt.Sprintf(
		"%s transaction failure rate %.2f%% over the last %ds (%d/%d failed)",
		evt.ProgramName, rate*100, r.WindowSeconds, failed, total,
	)).WithMetadata("failed", failed).
		WithMetadata("total", total).
		WithMetadata("rate", rate), nil
}
