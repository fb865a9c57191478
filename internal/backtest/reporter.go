package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/one-spear/internal/models"
)

var recordsHeader = []string{
	"race_id", "race_date", "field_size", "strategy", "predicted", "actual",
	"hit", "stake", "payout", "profit", "payout_missing",
}

// GenerateConsoleReport formats a report for terminal output
func GenerateConsoleReport(report *Report) string {
	s := report.Summary
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run ID: %s\n", report.RunID))
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n", s.StartDate.Format(time.DateOnly), s.EndDate.Format(time.DateOnly)))
	builder.WriteString(fmt.Sprintf("Strategy: %s  Model: %s\n", s.Strategy, s.Model))
	builder.WriteString(fmt.Sprintf("Races Evaluated: %d\n", s.RacesEvaluated))
	builder.WriteString(fmt.Sprintf("Hits: %d (%.2f%%)\n", s.Hits, s.HitRate*100))
	builder.WriteString(fmt.Sprintf("Random Expectation: %.4f%% (lift %.2fx)\n", report.Baseline.ExpectedHitRate*100, report.Baseline.Lift))
	builder.WriteString(fmt.Sprintf("Total Stake: %s\n", s.TotalStake.StringFixed(0)))
	builder.WriteString(fmt.Sprintf("Total Payout: %s\n", s.TotalPayout.StringFixed(0)))
	builder.WriteString(fmt.Sprintf("Profit: %s\n", s.Profit.StringFixed(0)))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%%\n", s.ROI*100))
	builder.WriteString(fmt.Sprintf("Avg Payout Given Hit: %s\n", s.AvgPayoutGivenHit.StringFixed(0)))
	if report.Curve != nil {
		builder.WriteString(fmt.Sprintf("Max Drawdown: %s\n", report.Curve.MaxDrawdown().StringFixed(0)))
	}
	builder.WriteString(fmt.Sprintf("Payout Gaps: %d\n", s.PayoutGaps))
	builder.WriteString(fmt.Sprintf("Races Excluded: %d\n", s.RacesExcluded))

	reasons := make([]string, 0, len(s.ExcludedByReason))
	for reason := range s.ExcludedByReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		builder.WriteString(fmt.Sprintf("  %s: %d\n", reason, s.ExcludedByReason[ExclusionReason(reason)]))
	}

	if len(report.Periods) > 0 {
		builder.WriteString("\nMonthly\n")
		for _, p := range report.Periods {
			builder.WriteString(fmt.Sprintf("  %s  races=%d hits=%d roi=%.2f%% profit=%s\n",
				p.Period, p.Races, p.Hits, p.ROI*100, p.Profit.StringFixed(0)))
		}
	}

	builder.WriteString(fmt.Sprintf("\nRecommendation: %s (score %.2f)\n", report.Assessment.Recommendation, report.Assessment.CompositeScore))
	return builder.String()
}

// GenerateCSVExport writes one row per settled race
func GenerateCSVExport(records []*models.PredictionRecord, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create csv export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(recordsHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.RaceID,
			r.RaceDate.Format(time.DateOnly),
			strconv.Itoa(r.FieldSize),
			r.Strategy,
			r.Predicted.String(),
			r.Actual.String(),
			strconv.FormatBool(r.Hit),
			r.Stake.String(),
			r.Payout.String(),
			r.Profit().String(),
			strconv.FormatBool(r.PayoutMissing),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// GenerateJSONReport writes the full report, records included
func GenerateJSONReport(report *Report, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// WriteOutputs writes the configured report files. Empty paths are skipped.
func WriteOutputs(report *Report, cfg BacktestConfig) error {
	if cfg.OutputPath != "" {
		if err := GenerateJSONReport(report, cfg.OutputPath); err != nil {
			return err
		}
	}
	if cfg.CSVPath != "" {
		if err := GenerateCSVExport(report.Records, cfg.CSVPath); err != nil {
			return err
		}
	}
	return nil
}
