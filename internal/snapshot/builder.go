package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/metrics"
	"github.com/yourusername/one-spear/internal/models"
)

// Builder turns finished race performances into per-entity snapshot series
type Builder struct {
	config Config
	logger *logger.SnapshotLogger
}

// NewBuilder creates a snapshot builder
func NewBuilder(cfg Config, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Defaults == (Defaults{}) {
		cfg.Defaults = DefaultDefaults()
	}
	return &Builder{
		config: cfg,
		logger: logger.NewSnapshotLogger(log),
	}
}

// Config returns the builder configuration
func (b *Builder) Config() Config {
	return b.config
}

// Build partitions rows by entity, sorts each partition by date and scans it
// once. Partitions are independent and run in parallel; each worker owns a
// single result slot.
func (b *Builder) Build(ctx context.Context, rows []*models.RacePerformance) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snapshot build: %w", err)
	}
	start := time.Now()

	partitions := make(map[Key][]*models.RacePerformance)
	skipped := 0
	for _, row := range rows {
		if row == nil || !row.Finished() {
			skipped++
			continue
		}
		if err := row.Validate(); err != nil {
			b.logger.WithError(err).Debug("Skipping invalid performance row")
			skipped++
			continue
		}
		for _, key := range keysFor(row, b.config.ExtendedKinds) {
			partitions[key] = append(partitions[key], row)
		}
	}

	keys := make([]Key, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sortKeys(keys)

	results := make([][]models.EntitySnapshot, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scan(key, partitions[key], b.config.Defaults.DaysSentinel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot build: %w", err)
	}

	ix := newIndex(b.config.Defaults)
	perKind := make(map[models.EntityKind]int)
	for i, key := range keys {
		ix.series[key] = results[i]
		ix.total += len(results[i])
		perKind[key.Kind] += len(results[i])
	}

	for kind, n := range perKind {
		metrics.RecordSnapshotsBuilt(string(kind), n)
	}
	metrics.RecordRowsSkipped(skipped)
	metrics.RecordSnapshotBuild(time.Since(start).Seconds())
	b.logger.LogBuildCompleted(len(rows), skipped, len(keys), ix.total, time.Since(start).Milliseconds())

	return ix, nil
}

// scan walks one entity's rows in date order and emits one snapshot per
// distinct race date, after folding in every row of that date.
func scan(key Key, rows []*models.RacePerformance, sentinel int) []models.EntitySnapshot {
	sorted := make([]*models.RacePerformance, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := models.Day(sorted[i].RaceDate), models.Day(sorted[j].RaceDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].RaceID < sorted[j].RaceID
	})

	var (
		out       []models.EntitySnapshot
		total     int
		wins      int
		places    int
		finishSum int
		lastDate  time.Time
		hasLast   bool
	)

	for i := 0; i < len(sorted); {
		day := models.Day(sorted[i].RaceDate)

		gap := sentinel
		if hasLast {
			gap = int(day.Sub(lastDate).Hours() / 24)
		}

		for ; i < len(sorted) && models.Day(sorted[i].RaceDate).Equal(day); i++ {
			row := sorted[i]
			total++
			finishSum += *row.FinishPosition
			if row.Won() {
				wins++
			}
			if row.Placed() {
				places++
			}
		}

		s := models.EntitySnapshot{
			Kind:              key.Kind,
			EntityID:          key.ID,
			AsOfDate:          day,
			TotalRaces:        total,
			Wins:              wins,
			Places:            places,
			WinRate:           float64(wins) / float64(total),
			PlaceRate:         float64(places) / float64(total),
			AvgFinishPosition: float64(finishSum) / float64(total),
		}
		if key.Kind == models.EntityHorse {
			days := gap
			s.DaysSinceLastRace = &days
		}
		out = append(out, s)

		lastDate = day
		hasLast = true
	}

	return out
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
}
