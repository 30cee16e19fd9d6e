package settlement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lendnet_settlement_stage_runs_total",
		Help: "Settlement stage executions by stage and outcome",
	}, []string{"stage", "outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lendnet_settlement_stage_duration_seconds",
		Help:    "Settlement stage latency",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	}, []string{"stage"})

	transactionsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendnet_settlement_transactions_settled_total",
		Help: "Transactions folded into account balances",
	})

	loanPotentialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendnet_settlement_loan_potentials_total",
		Help: "Loan potentials computed, in batch runs and on demand",
	})
)

func observeStage(stage Stage, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	stageRunsTotal.WithLabelValues(stage.String(), outcome).Inc()
	stageDuration.WithLabelValues(stage.String()).Observe(d.Seconds())
}
