package goBanking

import "sync/atomic"

// MetricID defines a public type used by goBanking APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricConsentStarted counts consent requests issued to the bank.
	MetricConsentStarted MetricID = iota
	// MetricConsentFailed counts flows ending in StateFailed.
	MetricConsentFailed
	// MetricStateMismatch counts callbacks rejected for state mismatch.
	MetricStateMismatch
	// MetricExchangeSuccess counts successful code exchanges.
	MetricExchangeSuccess
	// MetricExchangeFailure counts rejected code exchanges.
	MetricExchangeFailure
	// MetricAPIError counts non-2xx responses surfaced to callers.
	MetricAPIError
	// MetricTransactionFetches counts completed transaction fetches.
	MetricTransactionFetches
	// MetricTransactionPages counts individual pages retrieved.
	MetricTransactionPages
	// MetricPageCapHit counts fetches stopped by the pagination cap.
	MetricPageCapHit
	// MetricBalanceFetches counts balance retrievals.
	MetricBalanceFetches
	// MetricStoreSaveFailure counts best-effort persistence failures.
	MetricStoreSaveFailure
	// MetricSignOut counts explicit sign-outs.
	MetricSignOut
	// MetricExports counts CSV exports handed to a sink.
	MetricExports
	metricIDCount
)

// Metrics is a lock-free counter registry for engine activity.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// MetricsSnapshot defines a public type used by goBanking APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments a counter; a no-op when metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Add increments a counter by delta; a no-op when metrics are disabled.
func (m *Metrics) Add(id MetricID, delta uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(delta)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
