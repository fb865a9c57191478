package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoringRequestsTotal tracks score requests served
	ScoringRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "one_spear",
			Name:      "scoring_requests_total",
			Help:      "Total number of race scoring requests",
		},
		[]string{"model", "cache_hit"},
	)

	// ScoringLatency tracks remote scoring latency
	ScoringLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "one_spear",
			Name:      "scoring_latency_seconds",
			Help:      "Race scoring latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// ScoringErrorsTotal tracks scoring failures
	ScoringErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "one_spear",
			Name:      "scoring_errors_total",
			Help:      "Total number of failed scoring requests",
		},
		[]string{"model", "error_type"},
	)

	// ScoringCacheHitRatio tracks cache hit ratio
	ScoringCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "one_spear",
			Name:      "scoring_cache_hit_ratio",
			Help:      "Score cache hit ratio",
		},
	)
)
