package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the ledger's prometheus collectors.
type Metrics struct {
	transactions *prometheus.CounterVec
	instructions *prometheus.CounterVec
	latency      prometheus.Histogram
	accounts     prometheus.Gauge
	slot         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crowdfund",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Processed transactions by outcome.",
		}, []string{"status"}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crowdfund",
			Subsystem: "ledger",
			Name:      "instructions_total",
			Help:      "Executed instructions by program and outcome.",
		}, []string{"program", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crowdfund",
			Subsystem: "ledger",
			Name:      "transaction_duration_seconds",
			Help:      "Time spent executing and committing a transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crowdfund",
			Subsystem: "ledger",
			Name:      "accounts",
			Help:      "Accounts currently held by the ledger.",
		}),
		slot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crowdfund",
			Subsystem: "ledger",
			Name:      "slot",
			Help:      "Last committed slot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.transactions, m.instructions, m.latency, m.accounts, m.slot)
	}
	return m
}

func (m *Metrics) observeTransaction(status string, seconds float64) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(status).Inc()
	m.latency.Observe(seconds)
}

func (m *Metrics) observeInstruction(programName, status string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(programName, status).Inc()
}

func (m *Metrics) setState(accounts int, slot uint64) {
	if m == nil {
		return
	}
	m.accounts.Set(float64(accounts))
	m.slot.Set(float64(slot))
}
