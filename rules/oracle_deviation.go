package rules

import (
	"fmt"
	"math"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/domain/rule"
)

// OracleDeviation triggers when the subject price (the monitored
// program's own price gauge, keyed by its program name) diverges from a
// reference price gauge by at least Pct percent. ReferenceID names the
// reference gauge, e.g. a CEX-fed price for the same asset.
type OracleDeviation struct {
	name    string
	enabled bool

	Pct         float64
	ReferenceID string
}

func NewOracleDeviation(pct float64, referenceID string) *OracleDeviation {
	return &OracleDeviation{name: "oracle_deviation", enabled: true, Pct: pct, ReferenceID: referenceID}
}

func (r *OracleDeviation) Name() string        { return r.name }
func (r *OracleDeviation) Description() string { return "Flags divergence between an oracle price and a reference price" }
func (r *OracleDeviation) Enabled() bool       { return r.enabled }
func (r *OracleDeviation) SetEnabled(v bool)   { r.enabled = v }

func (r *OracleDeviation) Evaluate(evt *event.ProgramEvent, ctx *rule.Context) (rule.Result, error) {
	subject, ok := ctx.Metrics.Price(evt.ProgramName)
	if !ok {
		return rule.NotTriggered(r.name), nil
	}
	reference, ok := ctx.Metrics.Price(r.ReferenceID)
	if !ok || reference == 0 {
		return rule.NotTriggered(r.name), nil
	}

	deviation := math.Abs(subject-reference) / reference
	if deviation < r.Pct/100.0 {
		return rule.NotTriggered(r.name), nil
	}

	return rule.Triggered(r.name, alert.SeverityHigh, fmt.Sprintf(
		"%s oracle price %.4f deviates %.2f%% from reference %.4f",
		evt.ProgramName, subject, deviation*100, reference,
	)).WithMetadata("subject_price", subject).
		WithMetadata("reference_price", reference).
		WithMetadata("deviation_pct", deviation*100), nil
}
