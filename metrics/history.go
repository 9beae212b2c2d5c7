package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HistoryMetrics instruments a digest history.
type HistoryMetrics struct {
	name string

	inserts   *prometheus.CounterVec
	evictions *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	window    *prometheus.GaugeVec
	next      *prometheus.GaugeVec
}

// NewHistoryMetrics creates metrics for the history called name. Histories
// share collectors and are told apart by the "history" label.
func NewHistoryMetrics(pkg string, name string) HistoryMetrics {
	return HistoryMetrics{
		name: name,
		inserts: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_history_inserts", pkg),
				Help: "How many digests were inserted.",
			},
			[]string{"history"},
		)),
		evictions: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_history_evictions", pkg),
				Help: "How many inserts overwrote a live digest.",
			},
			[]string{"history"},
		)),
		lookups: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_history_lookups", pkg),
				Help: "How many queries were answered, partitioned by operation and result.",
			},
			[]string{"history", "operation", "result"},
		)),
		window: registerOnce(prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_history_window_size", pkg),
				Help: "Number of live digests.",
			},
			[]string{"history"},
		)),
		next: registerOnce(prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_history_next_index", pkg),
				Help: "Logical index the next insert will receive.",
			},
			[]string{"history"},
		)),
	}
}

// Inserted records an insert. evicted is true if the history was full.
func (m *HistoryMetrics) Inserted(evicted bool, windowSize, nextIndex uint64) {
	m.inserts.WithLabelValues(m.name).Inc()
	if evicted {
		m.evictions.WithLabelValues(m.name).Inc()
	}
	m.SetWindow(windowSize, nextIndex)
}

// SetWindow publishes the current window size and next index.
func (m *HistoryMetrics) SetWindow(windowSize, nextIndex uint64) {
	m.window.WithLabelValues(m.name).Set(float64(windowSize))
	m.next.WithLabelValues(m.name).Set(float64(nextIndex))
}

// Lookup records a read. result is a short label such as "hit", "miss",
// "true" or "false".
func (m *HistoryMetrics) Lookup(operation, result string) {
	m.lookups.WithLabelValues(m.name, operation, result).Inc()
}
