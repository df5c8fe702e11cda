// Package metrics exposes the process-wide Prometheus counters the
// orchestrator updates as requests complete. All state here is
// counter-only and safe under any goroutine interleaving — the one piece
// of cross-request mutable state the core is allowed to carry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "politely_requests_total",
		Help: "Total number of tone-rewrite requests processed, labeled by outcome.",
	}, []string{"outcome"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "politely_retries_total",
		Help: "Total number of validator-triggered retries.",
	})

	gatedStageFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "politely_gated_stage_fired_total",
		Help: "Total number of times each gated LLM stage actually fired.",
	}, []string{"stage"})

	tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "politely_tokens_total",
		Help: "Total LLM tokens consumed, labeled by stage and kind (prompt/completion).",
	}, []string{"stage", "kind"})

	costUsdTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "politely_cost_usd_total",
		Help: "Running total of estimated LLM cost in USD.",
	})

	requestLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "politely_request_latency_seconds",
		Help:    "End-to-end request latency.",
		Buckets: prometheus.DefBuckets,
	})

	redTierSegmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "politely_red_tier_segments_total",
		Help: "Total number of segments the Red-Label Enforcer classified as RED.",
	})
)

// Tracker is the process-wide cacheMetricsTracker: a thin facade over the
// package-level counters so the orchestrator depends on an interface, not
// on global state directly, and tests can substitute a no-op.
type Tracker struct{}

// NewTracker returns the shared Tracker. There is exactly one per
// process; it wraps promauto-registered collectors that are themselves
// already process-global.
func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) RecordRequest(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
}

func (t *Tracker) RecordRetry() {
	retriesTotal.Inc()
}

func (t *Tracker) RecordGatedStageFired(stage string) {
	gatedStageFired.WithLabelValues(stage).Inc()
}

func (t *Tracker) RecordTokens(stage, kind string, n int) {
	if n <= 0 {
		return
	}
	tokensTotal.WithLabelValues(stage, kind).Add(float64(n))
}

func (t *Tracker) RecordCost(usd float64) {
	if usd <= 0 {
		return
	}
	costUsdTotal.Add(usd)
}

func (t *Tracker) ObserveLatencySeconds(seconds float64) {
	requestLatencySeconds.Observe(seconds)
}

func (t *Tracker) RecordRedSegments(n int) {
	if n <= 0 {
		return
	}
	redTierSegmentsTotal.Add(float64(n))
}
