package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/one-spear/internal/models"
)

// ErrOutOfOrder is returned when appending a snapshot that does not advance its series
var ErrOutOfOrder = errors.New("snapshot as-of date must be after the last snapshot in its series")

// Resolver returns the latest statistics known strictly before a date
type Resolver interface {
	Resolve(kind models.EntityKind, id string, date time.Time) models.EntitySnapshot
}

// Index is an append-only log of snapshots per entity, sorted by as-of date.
// It is read-only once built and safe for concurrent Resolve calls.
type Index struct {
	series   map[Key][]models.EntitySnapshot
	defaults Defaults
	total    int
}

func newIndex(defaults Defaults) *Index {
	return &Index{
		series:   make(map[Key][]models.EntitySnapshot),
		defaults: defaults,
	}
}

// NewIndex builds an index from previously materialised snapshots
func NewIndex(snapshots []models.EntitySnapshot, defaults Defaults) (*Index, error) {
	ix := newIndex(defaults)
	sorted := make([]models.EntitySnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AsOfDate.Before(sorted[j].AsOfDate)
	})
	for _, s := range sorted {
		if err := ix.Append(s); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Append adds s to the end of its series. The as-of date must be strictly
// later than the current last entry.
func (ix *Index) Append(s models.EntitySnapshot) error {
	key := Key{Kind: s.Kind, ID: s.EntityID}
	s.AsOfDate = models.Day(s.AsOfDate)
	series := ix.series[key]
	if n := len(series); n > 0 && !series[n-1].AsOfDate.Before(s.AsOfDate) {
		return fmt.Errorf("%w: %s at %s", ErrOutOfOrder, key, s.AsOfDate.Format("2006-01-02"))
	}
	ix.series[key] = append(series, s)
	ix.total++
	return nil
}

// Resolve returns the snapshot with the greatest as-of date strictly before
// the calendar day of date, or the neutral defaults when none exists.
func (ix *Index) Resolve(kind models.EntityKind, id string, date time.Time) models.EntitySnapshot {
	return ix.ResolveKey(Key{Kind: kind, ID: id}, date)
}

// ResolveKey is Resolve for a prebuilt key
func (ix *Index) ResolveKey(key Key, date time.Time) models.EntitySnapshot {
	day := models.Day(date)
	series := ix.series[key]
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].AsOfDate.Before(day)
	})
	if i == 0 {
		return ix.defaults.Snapshot(key)
	}
	return series[i-1]
}

// History returns a copy of the series for key, oldest first
func (ix *Index) History(key Key) []models.EntitySnapshot {
	series := ix.series[key]
	out := make([]models.EntitySnapshot, len(series))
	copy(out, series)
	return out
}

// Keys returns every series key in deterministic order
func (ix *Index) Keys() []Key {
	keys := make([]Key, 0, len(ix.series))
	for key := range ix.series {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// Len is the total number of snapshots across all series
func (ix *Index) Len() int {
	return ix.total
}

// OfKind returns every snapshot of one kind, grouped by entity in key order
func (ix *Index) OfKind(kind models.EntityKind) []models.EntitySnapshot {
	var out []models.EntitySnapshot
	for _, key := range ix.Keys() {
		if key.Kind == kind {
			out = append(out, ix.series[key]...)
		}
	}
	return out
}

// All returns every snapshot, grouped by entity in key order
func (ix *Index) All() []models.EntitySnapshot {
	out := make([]models.EntitySnapshot, 0, ix.total)
	for _, key := range ix.Keys() {
		out = append(out, ix.series[key]...)
	}
	return out
}

// Defaults returns the neutral values used for entities without history
func (ix *Index) Defaults() Defaults {
	return ix.defaults
}
