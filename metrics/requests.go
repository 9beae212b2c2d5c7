package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Labels to use for partitioning requests.
	requestLabels = []string{"endpoint", "status"}

	// Labels to use for partitioning request latencies.
	requestLatencyLabels = []string{"endpoint"}
)

// RequestMetrics instruments the history HTTP API.
type RequestMetrics struct {
	// Counts of requests made to each service endpoint.
	RequestCounts *prometheus.CounterVec

	// Latencies of serving incoming requests.
	RequestLatencies *prometheus.HistogramVec
}

// NewDefaultRequestMetrics creates request counters and latency histograms
// named after pkg.
func NewDefaultRequestMetrics(pkg string) RequestMetrics {
	return RequestMetrics{
		RequestCounts: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests", pkg),
				Help: "How many service requests were made, partitioned by request endpoint and status.",
			},
			requestLabels,
		)),
		RequestLatencies: registerOnce(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_request_latencies", pkg),
				Help: "How long requests take to process, partitioned by request endpoint.",
			},
			requestLatencyLabels,
		)),
	}
}

// RequestCounter returns the counter for an endpoint and response status.
func (m *RequestMetrics) RequestCounter(endpoint string, status int) prometheus.Counter {
	return m.RequestCounts.WithLabelValues(endpoint, fmt.Sprint(status))
}

// RequestTimer creates a new latency timer for the provided request endpoint.
func (m *RequestMetrics) RequestTimer(endpoint string) *prometheus.Timer {
	return prometheus.NewTimer(m.RequestLatencies.WithLabelValues(endpoint))
}
