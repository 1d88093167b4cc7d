package goBanking

import (
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricConsentStarted)
	m.Add(MetricTransactionPages, 3)

	if got := m.Value(MetricConsentStarted); got != 1 {
		t.Fatalf("consent started = %d, want 1", got)
	}
	if got := m.Value(MetricTransactionPages); got != 3 {
		t.Fatalf("transaction pages = %d, want 3", got)
	}
	if got := m.Value(MetricExports); got != 0 {
		t.Fatalf("exports = %d, want 0", got)
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricConsentStarted)
	if got := m.Value(MetricConsentStarted); got != 0 {
		t.Fatalf("disabled metrics recorded a value: %d", got)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.Inc(MetricConsentStarted)
	m.Add(MetricConsentStarted, 2)
	if got := m.Value(MetricConsentStarted); got != 0 {
		t.Fatalf("nil metrics returned %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("nil snapshot = %+v", snap)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSignOut)

	snap := m.Snapshot()
	if snap.Counters[MetricSignOut] != 1 {
		t.Fatalf("snapshot = %+v", snap.Counters)
	}

	// snapshot is a copy
	m.Inc(MetricSignOut)
	if snap.Counters[MetricSignOut] != 1 {
		t.Fatalf("snapshot mutated by later increments")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricTransactionPages)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricTransactionPages); got != 8000 {
		t.Fatalf("counter = %d, want 8000", got)
	}
}
