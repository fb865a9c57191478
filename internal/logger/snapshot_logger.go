// Package logger provides snapshot-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// SnapshotLogger provides dedicated logging for snapshot builds.
type SnapshotLogger struct {
	*logrus.Entry
}

// NewSnapshotLogger creates a new snapshot logger.
func NewSnapshotLogger(baseLogger *logrus.Logger) *SnapshotLogger {
	return &SnapshotLogger{
		Entry: baseLogger.WithField("component", "snapshot"),
	}
}

// LogBuildCompleted logs the outcome of a snapshot build.
func (sl *SnapshotLogger) LogBuildCompleted(rows, skipped, entities, snapshots int, durationMs int64) {
	sl.WithFields(logrus.Fields{
		"rows":        rows,
		"rows_skipped": skipped,
		"entities":    entities,
		"snapshots":   snapshots,
		"duration_ms": durationMs,
	}).Info("Snapshot build completed")
}

// LogSnapshotsPersisted logs a batch write of snapshots.
func (sl *SnapshotLogger) LogSnapshotsPersisted(kind string, count int64) {
	sl.WithFields(logrus.Fields{
		"entity_kind": kind,
		"count":       count,
	}).Info("Snapshots persisted")
}
