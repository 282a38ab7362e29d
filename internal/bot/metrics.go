package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the scheduler's prometheus collectors
type Metrics struct {
	Cycles            prometheus.Counter
	AccountRuns       *prometheus.CounterVec
	CoinsCollected    prometheus.Counter
	Tasks             *prometheus.CounterVec
	TokenRefreshes    *prometheus.CounterVec
	LastCycleDuration prometheus.Gauge
}

// NewMetrics registers the collectors with reg; a nil reg keeps them unregistered
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "freedogs_cycles_total",
			Help: "Passes over all accounts started.",
		}),
		AccountRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freedogs_account_runs_total",
			Help: "Accounts processed, by result.",
		}, []string{"result"}),
		CoinsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "freedogs_coins_collected_total",
			Help: "Coins accepted by collect submissions.",
		}),
		Tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freedogs_tasks_total",
			Help: "Task completion attempts, by result.",
		}, []string{"result"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freedogs_token_refresh_total",
			Help: "Token refreshes, by result.",
		}, []string{"result"}),
		LastCycleDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "freedogs_last_cycle_duration_seconds",
			Help: "Wall time of the most recent cycle.",
		}),
	}
}

func (m *Metrics) observeAccount(r *AccountResult) {
	if m == nil {
		return
	}

	if r.Err != nil {
		m.AccountRuns.WithLabelValues("failed").Inc()
	} else {
		m.AccountRuns.WithLabelValues("success").Inc()
	}

	switch {
	case r.RefreshFailed:
		m.TokenRefreshes.WithLabelValues("failed").Inc()
	case r.TokenRefreshed:
		m.TokenRefreshes.WithLabelValues("success").Inc()
	}

	m.CoinsCollected.Add(float64(r.Collected))
	m.Tasks.WithLabelValues("completed").Add(float64(r.Tasks.Completed))
	m.Tasks.WithLabelValues("failed").Add(float64(r.Tasks.Failed))
}
