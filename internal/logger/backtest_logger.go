// Package logger provides backtest-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for backtest runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogRaceSettled logs a race that reached the settled state.
func (bl *BacktestLogger) LogRaceSettled(raceID, strategy, predicted, actual string, hit bool, payout string) {
	bl.WithFields(logrus.Fields{
		"race_id":   raceID,
		"strategy":  strategy,
		"predicted": predicted,
		"actual":    actual,
		"hit":       hit,
		"payout":    payout,
	}).Debug("Race settled")
}

// LogRaceExcluded logs a race that was dropped from the metrics.
func (bl *BacktestLogger) LogRaceExcluded(raceID, reason string, err error) {
	entry := bl.WithFields(logrus.Fields{
		"race_id": raceID,
		"reason":  reason,
	})
	if err != nil {
		entry.WithError(err).Warn("Race excluded")
		return
	}
	entry.Info("Race excluded")
}

// LogPayoutGap logs a hit whose payout record is absent or inconsistent.
func (bl *BacktestLogger) LogPayoutGap(raceID, betType, combination string) {
	bl.WithFields(logrus.Fields{
		"race_id":     raceID,
		"bet_type":    betType,
		"combination": combination,
	}).Warn("Hit without matching payout record, counted as zero")
}

// LogDuplicatePayout logs an extra payout record that was ignored.
func (bl *BacktestLogger) LogDuplicatePayout(raceID, betType string) {
	bl.WithFields(logrus.Fields{
		"race_id":  raceID,
		"bet_type": betType,
	}).Warn("Duplicate payout record ignored")
}

// LogRunSummary logs the headline metrics of a finished run.
func (bl *BacktestLogger) LogRunSummary(runID, strategy, model string, races, hits, excluded, gaps int, hitRate, roi float64, durationMs int64) {
	bl.WithFields(logrus.Fields{
		"run_id":          runID,
		"strategy":        strategy,
		"model":           model,
		"races_evaluated": races,
		"hits":            hits,
		"races_excluded":  excluded,
		"payout_gaps":     gaps,
		"hit_rate":        hitRate,
		"roi":             roi,
		"duration_ms":     durationMs,
	}).Info("Backtest run completed")
}
