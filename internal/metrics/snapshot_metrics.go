package metrics

import "github.com/prometheus/client_golang/prometheus"

// Snapshot builder metrics
var (
	SnapshotsBuiltTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshots_built_total",
		Help:      "Total number of entity snapshots built by entity kind",
	}, []string{"entity_kind"})

	PerformanceRowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "performance_rows_skipped_total",
		Help:      "Performance rows ignored by the snapshot builder (no official finish or invalid)",
	})

	SnapshotBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "snapshot_build_duration_seconds",
		Help:      "Duration of a full snapshot build in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// RecordSnapshotsBuilt adds count snapshots for kind.
func RecordSnapshotsBuilt(kind string, count int) {
	SnapshotsBuiltTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordRowsSkipped adds skipped input rows.
func RecordRowsSkipped(count int) {
	PerformanceRowsSkippedTotal.Add(float64(count))
}

// RecordSnapshotBuild records a build duration.
func RecordSnapshotBuild(durationSeconds float64) {
	SnapshotBuildDuration.Observe(durationSeconds)
}
