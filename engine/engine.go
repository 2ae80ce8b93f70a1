// Package engine owns the rule set and, for every received ProgramEvent,
// evaluates every enabled rule against a freshly built rule.Context,
// emitting alerts for triggers while maintaining bounded per-program event
// history and the process-wide metrics.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chainwatch/watchtower/alertmanager"
	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/domain/rule"
	"github.com/chainwatch/watchtower/internal/broadcast"
	"github.com/chainwatch/watchtower/internal/werrors"
	"github.com/chainwatch/watchtower/metrics"
	"github.com/chainwatch/watchtower/pkg/logger"
)

const alertBroadcastCapacity = 1000

// Engine is the monitoring pipeline's core: it fans every incoming event
// out to the registered rule set and turns triggers into alerts.
type Engine struct {
	rulesMu sync.RWMutex
	rules   []rule.Rule

	historyMu sync.Mutex
	history   map[string][]*event.ProgramEvent

	metrics *metrics.Collector
	alerts  *alertmanager.Manager
	config  Config
	log     *logger.Logger

	bus *broadcast.Bus[*alert.Alert]
	sem chan struct{}

	stateMu sync.RWMutex
	state   State

	cronMu      sync.Mutex
	cron        *cron.Cron
	cronEntryID cron.EntryID
}

// New constructs an Engine around a shared metrics collector and alert
// manager. The engine is created in the Stopped state.
func New(m *metrics.Collector, am *alertmanager.Manager, cfg Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewDefault("engine")
	}
	return &Engine{
		history: make(map[string][]*event.ProgramEvent),
		metrics: m,
		alerts:  am,
		config:  cfg,
		log:     log,
		bus:     broadcast.New[*alert.Alert](alertBroadcastCapacity),
		sem:     make(chan struct{}, maxInt(cfg.MaxConcurrentEvaluations, 1)),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// AddRule registers rule, rejecting a name already in use.
func (e *Engine) AddRule(r rule.Rule) error {
	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()

	for _, existing := range e.rules {
		if existing.Name() == r.Name() {
			return werrors.InvalidConfig(fmt.Sprintf("rule %q already registered", r.Name()))
		}
	}
	e.rules = append(e.rules, r)
	e.log.WithField("rule", r.Name()).Info("rule registered")
	return nil
}

// RemoveRule drops the named rule. An evaluation already in flight for that
// rule is unaffected. Returns false if no such rule was registered.
func (e *Engine) RemoveRule(name string) bool {
	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()

	for i, r := range e.rules {
		if r.Name() == name {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			e.log.WithField("rule", name).Info("rule removed")
			return true
		}
	}
	return false
}

// ListRules returns the names of every registered rule, in registration
// order.
func (e *Engine) ListRules() []string {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()

	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Start transitions the engine to Running and begins the periodic metrics
// heartbeat. Idempotent.
func (e *Engine) Start() error {
	e.stateMu.Lock()
	if e.state.Running {
		e.stateMu.Unlock()
		return nil
	}
	e.state.Running = true
	e.state.StartTime = time.Now().UTC()
	e.stateMu.Unlock()

	e.startMetricsHeartbeat()
	e.log.Info("monitoring engine started")
	return nil
}

// Stop transitions the engine to Stopped and halts the metrics heartbeat.
// Idempotent.
func (e *Engine) Stop() error {
	e.stateMu.Lock()
	if !e.state.Running {
		e.stateMu.Unlock()
		return nil
	}
	e.state.Running = false
	e.stateMu.Unlock()

	e.stopMetricsHeartbeat()
	e.log.Info("monitoring engine stopped")
	return nil
}

// startMetricsHeartbeat schedules a cron job, grounded on the same
// "@every Ns" idiom used elsewhere for periodic refresh intervals, that
// logs a metrics snapshot marker every MetricsInterval.
func (e *Engine) startMetricsHeartbeat() {
	e.cronMu.Lock()
	defer e.cronMu.Unlock()

	interval := e.config.MetricsInterval
	if interval <= 0 {
		interval = time.Minute
	}

	c := cron.New()
	entryID, err := c.AddFunc(fmt.Sprintf("@every %s", interval), e.snapshotMetrics)
	if err != nil {
		e.log.WithField("error", err).Warn("failed to schedule metrics heartbeat")
		return
	}
	c.Start()
	e.cron = c
	e.cronEntryID = entryID
}

func (e *Engine) stopMetricsHeartbeat() {
	e.cronMu.Lock()
	defer e.cronMu.Unlock()

	if e.cron == nil {
		return
	}
	e.cron.Stop()
	e.cron = nil
}

func (e *Engine) snapshotMetrics() {
	now := time.Now().UTC()
	e.stateMu.Lock()
	e.state.LastMetricsSnapshot = &now
	e.stateMu.Unlock()

	e.log.WithField("timestamp", now).Debug("metrics snapshot taken")
}

// ProcessEvent is the engine's core operation: it records, stores,
// evaluates, and alerts on a single incoming event.
func (e *Engine) ProcessEvent(evt *event.ProgramEvent) (ProcessingResult, error) {
	start := time.Now()
	result := ProcessingResult{}

	e.stateMu.RLock()
	running := e.state.Running
	e.stateMu.RUnlock()
	if !running {
		return result, werrors.New(werrors.CodeShutdown, "engine is not running")
	}

	e.metrics.RecordEvent(evt.ProgramName, evt.KindString())

	e.addToHistory(evt)
	ctx := e.buildContext(evt)

	enabled := e.enabledRules()
	if e.config.DebugLogging {
		e.log.WithField("event_id", evt.ID).WithField("rule_count", len(enabled)).Debug("evaluating rules")
	}

	outcomes := e.evaluateRules(evt, ctx, enabled)

	for _, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, o.err.Error())
			continue
		}
		result.RulesEvaluated++
		if !o.result.Triggered {
			continue
		}
		a := e.generateAlert(o.result, evt)
		e.alerts.Send(a)
		e.bus.Publish(a)
		e.metrics.RecordAlert(o.result.RuleName, a.Severity.String())
		result.AlertsGenerated++
	}

	e.stateMu.Lock()
	e.state.EventsProcessed++
	e.state.RulesEvaluated += uint64(result.RulesEvaluated)
	e.state.AlertsGenerated += uint64(result.AlertsGenerated)
	e.stateMu.Unlock()

	result.Duration = time.Since(start)
	if e.config.DebugLogging {
		e.log.WithField("event_id", evt.ID).
			WithField("duration", result.Duration).
			WithField("rules_evaluated", result.RulesEvaluated).
			WithField("alerts_generated", result.AlertsGenerated).
			Debug("event processed")
	}
	return result, nil
}

func (e *Engine) historyKey(evt *event.ProgramEvent) string {
	return evt.ProgramID + "_" + evt.ProgramName
}

func (e *Engine) addToHistory(evt *event.ProgramEvent) {
	key := e.historyKey(evt)
	maxAge := e.config.MaxHistoryAge
	maxEvents := e.config.MaxHistoryEvents

	e.historyMu.Lock()
	defer e.historyMu.Unlock()

	entries := append(e.history[key], evt)

	if maxAge > 0 {
		cutoff := time.Now().UTC().Add(-maxAge)
		trimmed := entries[:0:0]
		for _, ev := range entries {
			if !ev.Timestamp.Before(cutoff) {
				trimmed = append(trimmed, ev)
			}
		}
		entries = trimmed
	}

	if maxEvents > 0 && len(entries) > maxEvents {
		entries = entries[len(entries)-maxEvents:]
	}

	e.history[key] = entries
}

// buildContext clones the current history slice and takes a fresh metrics
// snapshot, giving every rule in this evaluation batch an identical,
// immutable view.
func (e *Engine) buildContext(evt *event.ProgramEvent) *rule.Context {
	key := e.historyKey(evt)

	e.historyMu.Lock()
	src := e.history[key]
	recent := make([]*event.ProgramEvent, len(src))
	copy(recent, src)
	e.historyMu.Unlock()

	return &rule.Context{
		RecentEvents: recent,
		Metrics:      e.metrics.Snapshot(),
		Config:       map[string]interface{}{},
		Timestamp:    time.Now().UTC(),
	}
}

func (e *Engine) enabledRules() []rule.Rule {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()

	out := make([]rule.Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Enabled() {
			out = append(out, r)
		}
	}
	return out
}

type ruleOutcome struct {
	result rule.Result
	err    error
}

// evaluateRules runs every rule under the engine's shared semaphore, each
// bounded by the configured rule timeout. A single semaphore caps the
// engine's total rule-evaluation parallelism across every event currently
// in flight, not per event.
func (e *Engine) evaluateRules(evt *event.ProgramEvent, ctx *rule.Context, rules []rule.Rule) []ruleOutcome {
	outcomes := make([]ruleOutcome, len(rules))

	var wg sync.WaitGroup
	for i, r := range rules {
		e.sem <- struct{}{}
		wg.Add(1)
		go func(i int, r rule.Rule) {
			defer wg.Done()
			defer func() { <-e.sem }()
			outcomes[i] = e.evaluateOne(evt, ctx, r)
		}(i, r)
	}
	wg.Wait()

	return outcomes
}

func (e *Engine) evaluateOne(evt *event.ProgramEvent, ctx *rule.Context, r rule.Rule) ruleOutcome {
	type evalResult struct {
		result rule.Result
		err    error
	}

	done := make(chan evalResult, 1)
	start := time.Now()
	go func() {
		res, err := r.Evaluate(evt, ctx)
		done <- evalResult{res, err}
	}()

	timeout := e.config.RuleTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	select {
	case out := <-done:
		duration := time.Since(start)
		if out.err != nil {
			e.log.WithField("rule", r.Name()).WithField("error", out.err).Warn("rule evaluation failed")
			return ruleOutcome{err: werrors.RuleInternalFailure(r.Name(), out.err)}
		}
		e.metrics.RecordRuleEvaluation(r.Name(), duration, out.result.Triggered)
		return ruleOutcome{result: out.result}
	case <-time.After(timeout):
		e.log.WithField("rule", r.Name()).Warn("rule evaluation timed out")
		return ruleOutcome{err: werrors.RuleTimeout(r.Name())}
	}
}

func (e *Engine) generateAlert(res rule.Result, evt *event.ProgramEvent) *alert.Alert {
	a := alert.New(res.RuleName, res.Message, res.Severity, evt.ProgramID, evt.ProgramName, evt.ID)
	a.Confidence = res.Confidence
	a.SuggestedActions = res.SuggestedActions
	for k, v := range res.Metadata {
		a.Metadata[k] = v
	}
	return a
}

// SubscribeToAlerts returns a fresh broadcast receiver for every alert the
// engine generates.
func (e *Engine) SubscribeToAlerts() <-chan *alert.Alert {
	return e.bus.Subscribe()
}

// UnsubscribeFromAlerts releases a subscription returned by
// SubscribeToAlerts.
func (e *Engine) UnsubscribeFromAlerts(recv <-chan *alert.Alert) {
	e.bus.Unsubscribe(recv)
}

// Statistics returns a read-only summary of the engine's running totals.
func (e *Engine) Statistics() Statistics {
	e.stateMu.RLock()
	st := e.state
	e.stateMu.RUnlock()

	e.historyMu.Lock()
	programs := len(e.history)
	e.historyMu.Unlock()

	uptime := time.Duration(0)
	if st.Running {
		uptime = time.Since(st.StartTime)
	}

	return Statistics{
		Uptime:            uptime,
		EventsProcessed:   st.EventsProcessed,
		RulesEvaluated:    st.RulesEvaluated,
		AlertsGenerated:   st.AlertsGenerated,
		RegisteredRules:   len(e.ListRules()),
		ProgramsMonitored: programs,
	}
}

// State returns a read-only copy of the engine's current run state.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}
