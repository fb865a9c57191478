// Package logger provides scoring-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ScoringLogger provides dedicated logging for model scoring calls.
type ScoringLogger struct {
	*logrus.Entry
}

// NewScoringLogger creates a new scoring logger.
func NewScoringLogger(baseLogger *logrus.Logger) *ScoringLogger {
	return &ScoringLogger{
		Entry: baseLogger.WithField("component", "scoring"),
	}
}

// LogScoreRequest logs a completed scoring request.
func (sl *ScoringLogger) LogScoreRequest(model, raceID string, entries int, cacheHit bool, latencyMs float64) {
	sl.WithFields(logrus.Fields{
		"model":      model,
		"race_id":    raceID,
		"entries":    entries,
		"cache_hit":  cacheHit,
		"latency_ms": latencyMs,
	}).Debug("Score request completed")
}

// LogScoreFailure logs a failed scoring request.
func (sl *ScoringLogger) LogScoreFailure(model, raceID string, err error) {
	sl.WithFields(logrus.Fields{
		"model":   model,
		"race_id": raceID,
	}).WithError(err).Warn("Score request failed")
}
