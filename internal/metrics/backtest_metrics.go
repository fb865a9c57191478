// Package metrics defines backtesting-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by strategy and status",
	}, []string{"strategy", "status"})
)

// Backtest histogram vectors
var (
	RaceEvaluationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "race_evaluation_duration_seconds",
		Help:      "Time spent scoring and settling a single race",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"model"})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure", "cancelled"
func RecordBacktestRun(strategy, status string) {
	BacktestRunsTotal.WithLabelValues(strategy, status).Inc()
}

// RecordRaceEvaluation records the time one race took to evaluate.
func RecordRaceEvaluation(model string, durationSeconds float64) {
	RaceEvaluationDuration.WithLabelValues(model).Observe(durationSeconds)
}
