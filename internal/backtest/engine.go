package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/one-spear/internal/features"
	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/metrics"
	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/repository"
	"github.com/yourusername/one-spear/internal/scoring"
	"github.com/yourusername/one-spear/internal/snapshot"
)

// RaceOutcome is the terminal state of one race after evaluation
type RaceOutcome struct {
	RaceID   string
	RaceDate time.Time
	State    RaceState
	Reason   ExclusionReason
	Detail   string
	Record   *models.PredictionRecord
}

// Exclusion describes a race left out of the metrics
type Exclusion struct {
	RaceID   string          `json:"race_id"`
	RaceDate time.Time       `json:"race_date"`
	Reason   ExclusionReason `json:"reason"`
	Detail   string          `json:"detail,omitempty"`
}

// Report is the full outcome of one replay
type Report struct {
	RunID      uuid.UUID                  `json:"run_id"`
	Summary    Summary                    `json:"summary"`
	Records    []*models.PredictionRecord `json:"records"`
	Exclusions []Exclusion                `json:"exclusions"`
	Curve      *ProfitCurve               `json:"curve"`
	Periods    []PeriodSummary            `json:"periods"`
	Baseline   BaselineResult             `json:"baseline"`
	Assessment Assessment                 `json:"assessment"`
	Duration   time.Duration              `json:"duration"`
}

// Engine replays historical races against a scoring model and a ticket strategy
type Engine struct {
	config   BacktestConfig
	store    repository.OutcomeStore
	builder  *snapshot.Builder
	model    scoring.Model
	strategy Strategy
	logger   *logrus.Logger
	events   *logger.BacktestLogger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg BacktestConfig, store repository.OutcomeStore, builder *snapshot.Builder, model scoring.Model, strat Strategy, log *logrus.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("outcome store is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("snapshot builder is required")
	}
	if model == nil {
		return nil, fmt.Errorf("scoring model is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if log == nil {
		log = logrus.New()
	}

	return &Engine{
		config:   cfg,
		store:    store,
		builder:  builder,
		model:    model,
		strategy: strat,
		logger:   log,
		events:   logger.NewBacktestLogger(log),
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() BacktestConfig {
	return e.config
}

// Run loads outcomes, builds point-in-time snapshots and settles every race in
// the configured range. Only structural failures are returned as errors.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	e.logger.WithFields(logrus.Fields{
		"start":    e.config.StartDate.Format(time.DateOnly),
		"end":      e.config.EndDate.Format(time.DateOnly),
		"strategy": e.strategy.Name(),
		"model":    e.model.Name(),
	}).Info("Starting backtest run")

	report, err := e.run(ctx)
	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.RecordBacktestRun(e.strategy.Name(), status)
	metrics.RecordBacktestDuration(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	s := report.Summary
	metrics.UpdateRunSummary(s.Strategy, s.Model, s.HitRate, s.ROI)
	e.events.LogRunSummary(report.RunID.String(), s.Strategy, s.Model, s.RacesEvaluated, s.Hits,
		s.RacesExcluded, s.PayoutGaps, s.HitRate, s.ROI, report.Duration.Milliseconds())
	return report, nil
}

func (e *Engine) run(ctx context.Context) (*Report, error) {
	// Snapshots for the last race day only need history strictly before it.
	history, err := e.store.ListFinishedPerformances(ctx, e.config.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load performances: %w", err)
	}
	index, err := e.builder.Build(ctx, history)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.ListRaceEntries(ctx, e.config.StartDate, e.config.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load race entries: %w", err)
	}
	payouts, err := e.store.ListPayouts(ctx, e.config.StartDate, e.config.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load payouts: %w", err)
	}

	races := models.GroupRaces(entries)
	book := NewPayoutBook(payouts, e.events)
	assembler := features.NewAssembler(index, e.config.Features)

	outcomes, err := e.evaluateAll(ctx, races, assembler, book)
	if err != nil {
		return nil, err
	}

	return e.buildReport(outcomes), nil
}

// evaluateAll settles races in parallel. Each race writes only its own slot,
// so the outcome order matches the chronological race order.
func (e *Engine) evaluateAll(ctx context.Context, races []*models.Race, assembler *features.Assembler, book *PayoutBook) ([]RaceOutcome, error) {
	outcomes := make([]RaceOutcome, len(races))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.workers())
	for i, race := range races {
		i, race := i, race
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := e.evaluate(gctx, race, assembler, book)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest aborted: %w", err)
	}
	// a model may swallow cancellation and still answer, leaving a partial run
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backtest aborted: %w", err)
	}
	return outcomes, nil
}

// evaluate walks one race through its lifecycle. A returned error is
// structural and aborts the run; every data problem ends in Excluded.
func (e *Engine) evaluate(ctx context.Context, race *models.Race, assembler *features.Assembler, book *PayoutBook) (RaceOutcome, error) {
	lc := newRaceLifecycle()
	outcome := RaceOutcome{RaceID: race.ID, RaceDate: race.Day()}

	exclude := func(reason ExclusionReason, err error) (RaceOutcome, error) {
		if advErr := lc.advance(StateExcluded); advErr != nil {
			return outcome, advErr
		}
		outcome.State = lc.state
		outcome.Reason = reason
		if err != nil {
			outcome.Detail = err.Error()
		}
		e.events.LogRaceExcluded(race.ID, string(reason), err)
		metrics.RecordRaceExcluded(string(reason))
		return outcome, nil
	}

	if len(race.Entries) < 3 {
		return exclude(ReasonTooFewRunners, nil)
	}
	actual, ok, deadHeat := race.ActualTriple()
	if deadHeat {
		return exclude(ReasonAmbiguousOutcome, nil)
	}
	if !ok {
		return exclude(ReasonIncompleteOutcome, nil)
	}

	vectors := assembler.Assemble(race)
	scoreStart := time.Now()
	scores, err := e.model.Score(ctx, race, vectors)
	metrics.RecordRaceEvaluation(e.model.Name(), time.Since(scoreStart).Seconds())
	if err != nil {
		// a scorer failure caused by cancellation is not a data problem
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, fmt.Errorf("race %s: %w", race.ID, ctxErr)
		}
		return exclude(ReasonScoringUnavailable, err)
	}
	if err := scoring.Check(scores, len(vectors)); err != nil {
		return exclude(ReasonScoringUnavailable, err)
	}
	if len(vectors) < 3 {
		return exclude(ReasonScoringUnavailable, fmt.Errorf("%w: %d scored runners", scoring.ErrScoringUnavailable, len(vectors)))
	}
	if err := lc.advance(StateScored); err != nil {
		return outcome, err
	}

	predicted := rankTop3(vectors, scores)
	if err := lc.advance(StateRanked); err != nil {
		return outcome, err
	}

	record := e.settle(race, predicted, actual, book)
	if err := lc.advance(StateSettled); err != nil {
		return outcome, err
	}
	outcome.State = lc.state
	outcome.Record = record

	metrics.RecordRaceSettled(record.Strategy, record.Hit, record.PayoutMissing)
	e.events.LogRaceSettled(race.ID, record.Strategy, predicted.String(), actual.String(), record.Hit, record.Payout.String())
	return outcome, nil
}

// settle applies the strategy and the payout table to one ranked race
func (e *Engine) settle(race *models.Race, predicted, actual models.Triple, book *PayoutBook) *models.PredictionRecord {
	record := &models.PredictionRecord{
		RaceID:    race.ID,
		RaceDate:  race.Day(),
		FieldSize: race.FieldSize(),
		Strategy:  e.strategy.Name(),
		Predicted: predicted,
		Actual:    actual,
		Hit:       e.strategy.Hit(predicted, actual),
		Stake:     e.config.UnitStake.Mul(decimal.NewFromInt(int64(e.strategy.Tickets()))),
		Payout:    decimal.Zero,
	}
	if !record.Hit {
		return record
	}

	betType := e.strategy.BetType()
	payout, ok := book.Lookup(race.ID, betType)
	if !ok || !payout.Matches(actual.Slice()) {
		record.PayoutMissing = true
		e.events.LogPayoutGap(race.ID, string(betType), actual.String())
		return record
	}
	record.Payout = payout.Amount
	return record
}

// rankTop3 orders runners by score descending, ties by ascending horse number,
// and returns the first three horse numbers
func rankTop3(vectors []features.Vector, scores []float64) models.Triple {
	order := make([]int, len(vectors))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return vectors[ia].HorseNumber < vectors[ib].HorseNumber
	})
	return models.Triple{
		vectors[order[0]].HorseNumber,
		vectors[order[1]].HorseNumber,
		vectors[order[2]].HorseNumber,
	}
}

func (e *Engine) buildReport(outcomes []RaceOutcome) *Report {
	var tally Tally
	records := make([]*models.PredictionRecord, 0, len(outcomes))
	exclusions := make([]Exclusion, 0)
	for _, o := range outcomes {
		tally.Add(o)
		switch o.State {
		case StateSettled:
			records = append(records, o.Record)
		case StateExcluded:
			exclusions = append(exclusions, Exclusion{RaceID: o.RaceID, RaceDate: o.RaceDate, Reason: o.Reason, Detail: o.Detail})
		}
	}

	summary := Summarize(tally, e.strategy.Name(), e.model.Name(), e.config.StartDate, e.config.EndDate)
	periods := BreakdownByPeriod(records)
	baseline := RandomBaseline(records, e.strategy, BaselineConfig{
		Iterations: e.config.BaselineIterations,
		Seed:       e.config.Seed,
	})

	return &Report{
		RunID:      uuid.New(),
		Summary:    summary,
		Records:    records,
		Exclusions: exclusions,
		Curve:      NewProfitCurve(records),
		Periods:    periods,
		Baseline:   baseline,
		Assessment: Assess(summary, baseline, periods),
	}
}
