// Package metrics is the process-wide store of counters, gauges,
// histograms, and named sliding windows consumed both for external
// scraping and for rule evaluation context.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultWindowDuration = time.Hour
	defaultWindowPoints   = 1000
)

// counters groups the built-in Prometheus counter vectors.
type counters struct {
	eventsTotal           *prometheus.CounterVec
	alertsTotal           *prometheus.CounterVec
	transactionsTotal     *prometheus.CounterVec
	failedTransactions    *prometheus.CounterVec
	ruleEvaluationsTotal  *prometheus.CounterVec
}

// gauges groups the built-in Prometheus gauge vectors.
type gauges struct {
	totalValueLocked *prometheus.GaugeVec
	tokenPrices      *prometheus.GaugeVec
	failureRate      *prometheus.GaugeVec
}

// histograms groups the built-in Prometheus histogram vectors.
type histograms struct {
	transactionAmounts     *prometheus.HistogramVec
	ruleEvaluationDuration *prometheus.HistogramVec
}

// Collector is a process-wide metrics store. Counters/gauges/histograms
// mirror into Prometheus for scraping (wiring the registration only — the
// HTTP scrape endpoint itself is an external-collaborator concern); named
// sliding windows back the statistics the engine hands rules.
type Collector struct {
	registry   *prometheus.Registry
	counters   counters
	gauges     gauges
	histograms histograms

	mu      sync.RWMutex
	custom  map[string]float64
	windows map[string]*SlidingWindow
}

// New creates a Collector registered against a fresh, private Prometheus
// registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a Collector against a caller-supplied registry,
// separating metric definition from registry choice so tests can use an
// isolated registry per case.
func NewWithRegistry(registry *prometheus.Registry) *Collector {
	c := &Collector{
		registry: registry,
		custom:   make(map[string]float64),
		windows:  make(map[string]*SlidingWindow),
	}

	c.counters = counters{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_events_total",
			Help: "Total events processed",
		}, []string{"program", "event_type"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_alerts_total",
			Help: "Total alerts generated",
		}, []string{"rule", "severity"}),
		transactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_transactions_total",
			Help: "Total transactions processed",
		}, []string{"program"}),
		failedTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_failed_transactions_total",
			Help: "Total failed transactions",
		}, []string{"program"}),
		ruleEvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_rule_evaluations_total",
			Help: "Total rule evaluations",
		}, []string{"rule", "result"}),
	}

	c.gauges = gauges{
		totalValueLocked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "watchtower_total_value_locked",
			Help: "Total value locked per program",
		}, []string{"program"}),
		tokenPrices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "watchtower_token_prices",
			Help: "Current token prices",
		}, []string{"token"}),
		failureRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "watchtower_failure_rate",
			Help: "Transaction failure rate per program",
		}, []string{"program"}),
	}

	c.histograms = histograms{
		transactionAmounts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "watchtower_transaction_amounts",
			Help:    "Transaction amounts",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}, []string{"program"}),
		ruleEvaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "watchtower_rule_evaluation_duration_seconds",
			Help:    "Rule evaluation duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"rule"}),
	}

	registry.MustRegister(
		c.counters.eventsTotal,
		c.counters.alertsTotal,
		c.counters.transactionsTotal,
		c.counters.failedTransactions,
		c.counters.ruleEvaluationsTotal,
		c.gauges.totalValueLocked,
		c.gauges.tokenPrices,
		c.gauges.failureRate,
		c.histograms.transactionAmounts,
		c.histograms.ruleEvaluationDuration,
	)

	return c
}

// Registry exposes the underlying Prometheus registry for an external
// scrape handler to mount.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordEvent increments the per-(program, event kind) event counter.
func (c *Collector) RecordEvent(programName, eventKind string) {
	c.counters.eventsTotal.WithLabelValues(programName, eventKind).Inc()
}

// RecordAlert increments the per-(rule, severity) alert counter.
func (c *Collector) RecordAlert(ruleName, severity string) {
	c.counters.alertsTotal.WithLabelValues(ruleName, severity).Inc()
}

// RecordTransaction increments the transaction (and, on failure, the
// failed-transaction) counter and observes the amount histogram.
func (c *Collector) RecordTransaction(programName string, success bool, amount float64) {
	c.counters.transactionsTotal.WithLabelValues(programName).Inc()
	if !success {
		c.counters.failedTransactions.WithLabelValues(programName).Inc()
	}
	c.histograms.transactionAmounts.WithLabelValues(programName).Observe(amount)
}

// RecordRuleEvaluation increments the rule-evaluations counter labeled by
// outcome and observes the evaluation-duration histogram.
func (c *Collector) RecordRuleEvaluation(ruleName string, duration time.Duration, triggered bool) {
	result := "passed"
	if triggered {
		result = "triggered"
	}
	c.counters.ruleEvaluationsTotal.WithLabelValues(ruleName, result).Inc()
	c.histograms.ruleEvaluationDuration.WithLabelValues(ruleName).Observe(duration.Seconds())
}

// UpdateTVL sets the program's total-value-locked gauge and appends the
// sample to that program's "<program>_tvl" sliding window. The current
// value is also mirrored into the snapshot's Values map under
// "tvl:<program>" so rules (LargeTransaction) can read the latest TVL
// without re-deriving it from the window's aggregate stats.
func (c *Collector) UpdateTVL(programName string, tvl float64) {
	c.gauges.totalValueLocked.WithLabelValues(programName).Set(tvl)
	c.AddToWindow(programName+"_tvl", tvl)
	c.SetCustomMetric("tvl:"+programName, tvl)
}

// UpdateTokenPrice sets a token's price gauge and appends to its
// "<token>_price" sliding window, mirroring the current value into Values
// under "price:<token>" for OracleDeviation.
func (c *Collector) UpdateTokenPrice(tokenSymbol string, price float64) {
	c.gauges.tokenPrices.WithLabelValues(tokenSymbol).Set(price)
	c.AddToWindow(tokenSymbol+"_price", price)
	c.SetCustomMetric("price:"+tokenSymbol, price)
}

// UpdateFailureRate sets a program's failure-rate gauge and appends to its
// "<program>_failure_rate" sliding window, mirroring the current value
// into Values under "failure_rate:<program>".
func (c *Collector) UpdateFailureRate(programName string, rate float64) {
	c.gauges.failureRate.WithLabelValues(programName).Set(rate)
	c.AddToWindow(programName+"_failure_rate", rate)
	c.SetCustomMetric("failure_rate:"+programName, rate)
}

// AddToWindow appends value to the named sliding window, creating it with
// the default 1-hour/1000-point bounds on first use.
func (c *Collector) AddToWindow(name string, value float64) {
	c.mu.Lock()
	w, ok := c.windows[name]
	if !ok {
		w = NewSlidingWindow(defaultWindowDuration, defaultWindowPoints)
		c.windows[name] = w
	}
	c.mu.Unlock()
	w.Add(value)
}

// Window returns the named sliding window and whether it has been created
// yet, without creating it as a side effect.
func (c *Collector) Window(name string) (*SlidingWindow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.windows[name]
	return w, ok
}

// SetCustomMetric records an arbitrary named scalar, visible in the next
// Snapshot's Values map.
func (c *Collector) SetCustomMetric(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.custom[name] = value
}

// Snapshot is the read-only view handed to rules via RuleContext and
// returned to external callers on demand.
type Snapshot struct {
	Timestamp time.Time
	Values    map[string]float64
	Windows   map[string]WindowStats
	series    map[string]Series
}

// Snapshot takes a point-in-time copy of custom metric values and every
// sliding window's current statistics (plus its raw series, used by rules
// whose configured lookback is narrower than the window's retention).
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := make(map[string]float64, len(c.custom))
	for k, v := range c.custom {
		values[k] = v
	}

	windows := make(map[string]WindowStats, len(c.windows))
	series := make(map[string]Series, len(c.windows))
	for name, w := range c.windows {
		if stats, ok := w.Stats(); ok {
			windows[name] = stats
		}
		series[name] = w.series()
	}

	return Snapshot{
		Timestamp: time.Now().UTC(),
		Values:    values,
		Windows:   windows,
		series:    series,
	}
}

// TVL returns the program's current total-value-locked reading, if any
// has been recorded.
func (s Snapshot) TVL(programName string) (float64, bool) {
	v, ok := s.Values["tvl:"+programName]
	return v, ok
}

// Price returns a token's current price reading, if any has been
// recorded.
func (s Snapshot) Price(tokenSymbol string) (float64, bool) {
	v, ok := s.Values["price:"+tokenSymbol]
	return v, ok
}

// FailureRate returns a program's current failure-rate reading, if any
// has been recorded.
func (s Snapshot) FailureRate(programName string) (float64, bool) {
	v, ok := s.Values["failure_rate:"+programName]
	return v, ok
}

// TVLWindow returns the program's TVL sliding window stats over the
// window's full retention.
func (s Snapshot) TVLWindow(programName string) (WindowStats, bool) {
	w, ok := s.Windows[programName+"_tvl"]
	return w, ok
}

// TVLSeriesWithin returns the program's TVL samples within the trailing
// duration (relative to the snapshot's own timestamp), oldest first. Used
// by LiquidityDrop to clamp the collector's default 1-hour TVL window down
// to the rule's configured window_s.
func (s Snapshot) TVLSeriesWithin(programName string, duration time.Duration) ([]float64, bool) {
	series, ok := s.series[programName+"_tvl"]
	if !ok {
		return nil, false
	}
	return series.Within(duration, s.Timestamp), true
}
