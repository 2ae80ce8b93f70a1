// Package rules holds the built-in detectors the engine ships with:
// LargeTransaction, LiquidityDrop, OracleDeviation, and FailureRate.
package rules

import (
	"fmt"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/domain/rule"
)

// largeTransactionFactor is the multiple of the trigger threshold above
// which the rule escalates from Medium to High severity.
const largeTransactionFactor = 10.0

// LargeTransaction triggers when a transfer's value is both at least
// MinValue and at least PctOfTVL percent of the program's current TVL.
// Severity is High when the observed value is at least 10x the effective
// threshold, Medium otherwise.
type LargeTransaction struct {
	name    string
	enabled bool

	PctOfTVL float64
	MinValue float64
}

// NewLargeTransaction builds the rule under its canonical name
// "large_transaction", enabled by default.
func NewLargeTransaction(pctOfTVL, minValue float64) *LargeTransaction {
	return &LargeTransaction{name: "large_transaction", enabled: true, PctOfTVL: pctOfTVL, MinValue: minValue}
}

func (r *LargeTransaction) Name() string        { return r.name }
func (r *LargeTransaction) Description() string { return "Flags transfers large relative to TVL or an absolute floor" }
func (r *LargeTransaction) Enabled() bool       { return r.enabled }
func (r *LargeTransaction) SetEnabled(v bool)   { r.enabled = v }

func (r *LargeTransaction) Evaluate(evt *event.ProgramEvent, ctx *rule.Context) (rule.Result, error) {
	amount, ok := transferAmount(evt)
	if !ok {
		return rule.NotTriggered(r.name), nil
	}

	threshold := r.MinValue
	tvl, hasTVL := ctx.Metrics.TVL(evt.ProgramName)
	if hasTVL {
		pctThreshold := (r.PctOfTVL / 100.0) * tvl
		if pctThreshold > threshold {
			threshold = pctThreshold
		}
	}

	if amount < r.MinValue {
		return rule.NotTriggered(r.name), nil
	}
	if hasTVL && amount < (r.PctOfTVL/100.0)*tvl {
		return rule.NotTriggered(r.name), nil
	}

	severity := alert.SeverityMedium
	if threshold > 0 && amount >= threshold*largeTransactionFactor {
		severity = alert.SeverityHigh
	}

	result := rule.Triggered(r.name, severity, fmt.Sprintf(
		"transfer of %.0f on %s exceeds the large-transaction threshold of %.0f",
		amount, evt.ProgramName, threshold,
	)).WithMetadata("observed", amount).WithMetadata("threshold", threshold)

	if hasTVL {
		result = result.WithMetadata("tvl", tvl)
	}
	return result, nil
}

// transferAmount extracts the value to compare against the threshold: a
// token transfer's amount. Events without a transfer payload report false,
// and the rule does not trigger on them.
func transferAmount(evt *event.ProgramEvent) (float64, bool) {
	if evt.Payload.TokenTransfer != nil {
		return float64(evt.Payload.TokenTransfer.Amount), true
	}
	return 0, false
}
