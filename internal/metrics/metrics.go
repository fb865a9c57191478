// Package metrics provides centralized Prometheus metrics registry for backtest and snapshot jobs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

const namespace = "one_spear"

// Counter metrics
var (
	RacesEvaluatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_evaluated_total",
		Help:      "Total number of races settled by the backtest simulator",
	}, []string{"strategy"})
	RacesExcludedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_excluded_total",
		Help:      "Total number of races excluded from backtest metrics by reason",
	}, []string{"reason"})
	HitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hits_total",
		Help:      "Total number of winning predictions",
	}, []string{"strategy"})
	PayoutGapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payout_gaps_total",
		Help:      "Total number of hits settled without a matching payout record",
	})
)

// Gauge metrics
var (
	LastHitRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_hit_rate",
		Help:      "Hit rate of the most recent backtest run",
	}, []string{"strategy", "model"})
	LastROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_roi",
		Help:      "Return on investment of the most recent backtest run",
	}, []string{"strategy", "model"})
)

// Histogram metrics
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(RacesEvaluatedTotal)
		registry.MustRegister(RacesExcludedTotal)
		registry.MustRegister(HitsTotal)
		registry.MustRegister(PayoutGapsTotal)

		// Register gauge metrics
		registry.MustRegister(LastHitRate)
		registry.MustRegister(LastROI)

		// Register histogram metrics
		registry.MustRegister(BacktestDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(RaceEvaluationDuration)

		// Register snapshot metrics
		registry.MustRegister(SnapshotsBuiltTotal)
		registry.MustRegister(SnapshotBuildDuration)
		registry.MustRegister(PerformanceRowsSkippedTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRaceSettled records a settled race and whether it hit.
func RecordRaceSettled(strategy string, hit, payoutMissing bool) {
	RacesEvaluatedTotal.WithLabelValues(strategy).Inc()
	if hit {
		HitsTotal.WithLabelValues(strategy).Inc()
	}
	if payoutMissing {
		PayoutGapsTotal.Inc()
	}
}

// RecordRaceExcluded records an excluded race.
func RecordRaceExcluded(reason string) {
	RacesExcludedTotal.WithLabelValues(reason).Inc()
}

// UpdateRunSummary sets the headline gauges for a finished run.
func UpdateRunSummary(strategy, model string, hitRate, roi float64) {
	LastHitRate.WithLabelValues(strategy, model).Set(hitRate)
	LastROI.WithLabelValues(strategy, model).Set(roi)
}

// RecordBacktestDuration records backtest duration.
func RecordBacktestDuration(durationSeconds float64) {
	BacktestDuration.Observe(durationSeconds)
}
