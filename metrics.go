package match

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "exsim"

// Instruction results used as the "result" label.
const (
	resultAcked    = "acked"
	resultRejected = "rejected"
	resultError    = "error"
)

// Metrics are the Prometheus collectors updated by an Exchange.
type Metrics struct {
	Instructions   *prometheus.CounterVec
	Fills          prometheus.Counter
	TradedQuantity prometheus.Counter
	Clients        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "instructions_total",
			Help:      "Instructions processed, by action and result.",
		}, []string{"action", "result"}),
		Fills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fills_total",
			Help:      "Passive order slices filled.",
		}),
		TradedQuantity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "traded_quantity_total",
			Help:      "Total quantity traded.",
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "clients",
			Help:      "Registered clients.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Instructions, m.Fills, m.TradedQuantity, m.Clients)
	}
	return m
}

func (m *Metrics) observeInstruction(action string, result string) {
	m.Instructions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) observeTrade(trade *Trade) {
	m.Fills.Add(float64(len(trade.Fills)))
	m.TradedQuantity.Add(float64(trade.TotalQuantity))
}
