package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainMetrics instruments contract calls and transactions.
type ChainMetrics struct {
	calls        *prometheus.CounterVec
	transactions *prometheus.CounterVec
	gasUsed      *prometheus.CounterVec
}

// NewChainMetrics creates metrics for contract interactions.
func NewChainMetrics(pkg string) ChainMetrics {
	return ChainMetrics{
		calls: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_contract_calls", pkg),
				Help: "How many read-only contract calls were made, partitioned by contract, method and status.",
			},
			[]string{"contract", "method", "status"},
		)),
		transactions: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_contract_transactions", pkg),
				Help: "How many transactions were sent, partitioned by contract, method and status.",
			},
			[]string{"contract", "method", "status"},
		)),
		gasUsed: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_contract_gas_used", pkg),
				Help: "Gas used by confirmed transactions, partitioned by contract and method.",
			},
			[]string{"contract", "method"},
		)),
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Call records a read-only call.
func (m *ChainMetrics) Call(contract, method string, err error) {
	m.calls.WithLabelValues(contract, method, statusLabel(err)).Inc()
}

// Transaction records a transaction and, if it was confirmed, its gas.
func (m *ChainMetrics) Transaction(contract, method string, gasUsed uint64, err error) {
	m.transactions.WithLabelValues(contract, method, statusLabel(err)).Inc()
	if err == nil {
		m.gasUsed.WithLabelValues(contract, method).Add(float64(gasUsed))
	}
}
