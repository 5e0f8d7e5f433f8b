package roles

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors updated by the Service and Middleware.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	decisions    *prometheus.CounterVec
	transactions *prometheus.CounterVec
	txDuration   prometheus.Histogram
	cacheLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg (the default registerer when nil).
// Collectors already registered under the same names are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roles_authorization_decisions_total",
			Help: "Role requirement evaluations by mode and result",
		}, []string{"mode", "result"}), // result: allowed|denied|error
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roles_transactions_total",
			Help: "Role store transactions by result",
		}, []string{"result"}),
		txDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roles_transaction_duration_seconds",
			Help:    "Duration of role store transactions",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roles_cache_lookups_total",
			Help: "Subject role cache lookups by result",
		}, []string{"result"}), // result: hit|miss
	}

	var err error
	if m.decisions, err = registerCollector(reg, m.decisions); err != nil {
		return nil, err
	}
	if m.transactions, err = registerCollector(reg, m.transactions); err != nil {
		return nil, err
	}
	if m.txDuration, err = registerCollector(reg, m.txDuration); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = registerCollector(reg, m.cacheLookups); err != nil {
		return nil, err
	}

	return m, nil
}

func registerCollector[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *Metrics) observeDecision(mode Mode, result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(mode.String(), result).Inc()
}

func (m *Metrics) observeTransaction(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	result := "committed"
	if !ok {
		result = "rolled_back"
	}
	m.transactions.WithLabelValues(result).Inc()
	m.txDuration.Observe(d.Seconds())
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
