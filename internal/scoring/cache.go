package scoring

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/one-spear/internal/features"
	"github.com/yourusername/one-spear/internal/models"
)

// CacheKey identifies one race scored by one model. Runners lists the scored
// horse numbers so a corrected starter list never reuses stale scores.
type CacheKey struct {
	Model   string
	RaceID  string
	Runners string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return k.Model + ":" + k.RaceID + "#" + k.Runners
}

// RunnersKey joins the horse numbers of vectors in order
func RunnersKey(vectors []features.Vector) string {
	var b strings.Builder
	for i, v := range vectors {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(v.HorseNumber))
	}
	return b.String()
}

// ScoreCache provides in-memory caching for race scores
type ScoreCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewScoreCache creates a new score cache
func NewScoreCache(ttl time.Duration, maxSize int) *ScoreCache {
	return &ScoreCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves cached scores; the returned slice is a copy
func (sc *ScoreCache) Get(key CacheKey) ([]float64, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if v, found := sc.cache.Get(key.String()); found {
		if scores, ok := v.([]float64); ok {
			sc.hitCount++
			sc.updateMetrics()
			return append([]float64(nil), scores...), true
		}
	}

	sc.missCount++
	sc.updateMetrics()
	return nil, false
}

// Set stores scores in cache
func (sc *ScoreCache) Set(key CacheKey, scores []float64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.cache.ItemCount() >= sc.maxSize {
		sc.cache.DeleteExpired()
		if sc.cache.ItemCount() >= sc.maxSize {
			return
		}
	}

	sc.cache.Set(key.String(), append([]float64(nil), scores...), sc.ttl)
}

// InvalidateModel drops every entry produced by model
func (sc *ScoreCache) InvalidateModel(model string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	prefix := model + ":"
	for k := range sc.cache.Items() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			sc.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (sc *ScoreCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cache.Flush()
	sc.hitCount = 0
	sc.missCount = 0
}

// Stats returns cache statistics
func (sc *ScoreCache) Stats() (hits, misses uint64, ratio float64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.statsLocked()
}

func (sc *ScoreCache) statsLocked() (hits, misses uint64, ratio float64) {
	hits = sc.hitCount
	misses = sc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (sc *ScoreCache) updateMetrics() {
	_, _, ratio := sc.statsLocked()
	ScoringCacheHitRatio.Set(ratio)
}

// ItemCount returns the number of items in cache
func (sc *ScoreCache) ItemCount() int {
	return sc.cache.ItemCount()
}

// CachedModel memoises another model's scores per race
type CachedModel struct {
	inner Model
	cache *ScoreCache
}

// NewCachedModel wraps inner with cache
func NewCachedModel(inner Model, cache *ScoreCache) *CachedModel {
	return &CachedModel{inner: inner, cache: cache}
}

// Name implements Model
func (m *CachedModel) Name() string { return m.inner.Name() }

// Score implements Model
func (m *CachedModel) Score(ctx context.Context, race *models.Race, vectors []features.Vector) ([]float64, error) {
	key := CacheKey{Model: m.inner.Name(), RaceID: race.ID, Runners: RunnersKey(vectors)}
	if scores, ok := m.cache.Get(key); ok && len(scores) == len(vectors) {
		ScoringRequestsTotal.WithLabelValues(key.Model, "true").Inc()
		return scores, nil
	}

	scores, err := m.inner.Score(ctx, race, vectors)
	if err != nil {
		return nil, err
	}
	if Check(scores, len(vectors)) == nil {
		m.cache.Set(key, scores)
	}
	return scores, nil
}

// Close releases the wrapped model's resources, if it holds any
func (m *CachedModel) Close() error {
	m.cache.Clear()
	if closer, ok := m.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
