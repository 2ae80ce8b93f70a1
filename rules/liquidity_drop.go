package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/domain/rule"
)

// LiquidityDrop triggers when a program's TVL window shows a trough at
// least Pct percent below its peak, provided the peak itself clears
// MinTVL (a program that never held meaningful liquidity shouldn't alert
// on noise around zero). WindowSeconds clamps how far back into the TVL
// series the rule looks, independent of the collector's own retention.
type LiquidityDrop struct {
	name    string
	enabled bool

	Pct           float64
	WindowSeconds int
	MinTVL        float64
}

func NewLiquidityDrop(pct float64, windowSeconds int, minTVL float64) *LiquidityDrop {
	return &LiquidityDrop{name: "liquidity_drop", enabled: true, Pct: pct, WindowSeconds: windowSeconds, MinTVL: minTVL}
}

func (r *LiquidityDrop) Name() string        { return r.name }
func (r *LiquidityDrop) Description() string { return "Flags a sharp drop in a program's total value locked" }
func (r *LiquidityDrop) Enabled() bool       { return r.enabled }
func (r *LiquidityDrop) SetEnabled(v bool)   { r.enabled = v }

func (r *LiquidityDrop) Evaluate(evt *event.ProgramEvent, ctx *rule.Context) (rule.Result, error) {
	window := time.Duration(r.WindowSeconds) * time.Second
	samples, ok := ctx.Metrics.TVLSeriesWithin(evt.ProgramName, window)
	if !ok || len(samples) == 0 {
		return rule.NotTriggered(r.name), nil
	}

	min, max := samples[0], samples[0]
	for _, v := range samples[1:] {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	if max < r.MinTVL {
		return rule.NotTriggered(r.name), nil
	}
	threshold := (1 - r.Pct/100.0) * max
	if min > threshold {
		return rule.NotTriggered(r.name), nil
	}

	return rule.Triggered(r.name, alert.SeverityHigh, fmt.Sprintf(
		"%s TVL dropped from %.0f to %.0f within %ds",
		evt.ProgramName, max, min, r.WindowSeconds,
	)).WithMetadata("min", min).
		WithMetadata("max", max).
		WithMetadata("threshold", threshold).
		WithMetadata("samples", len(samples)), nil
}
