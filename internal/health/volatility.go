package health

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// volatilityCeiling bounds the analyzer output.
const volatilityCeiling = 10.0

// volatilityCache memoizes analyzer results under a coarse fingerprint.
// Entries expire after a TTL and the oldest key is evicted once the cache
// reaches its configured maximum size. Not safe for concurrent use on its
// own; the Engine serializes access under its mutex.
type volatilityCache struct {
	entries map[string]cacheEntry
	order   []string // insertion order, oldest first
	hits    int
	lookups int
	now     func() time.Time // injectable for deterministic tests
}

type cacheEntry struct {
	value    float64
	storedAt time.Time
}

func newVolatilityCache() *volatilityCache {
	return &volatilityCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *volatilityCache) get(key string, ttl time.Duration) (float64, bool) {
	c.lookups++
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	if c.now().Sub(e.storedAt) > ttl {
		return 0, false
	}
	c.hits++
	return e.value, true
}

func (c *volatilityCache) put(key string, value float64, maxSize int) {
	if _, exists := c.entries[key]; !exists {
		if maxSize > 0 && len(c.entries) >= maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

func (c *volatilityCache) clear() {
	c.entries = make(map[string]cacheEntry)
	c.order = nil
	c.hits = 0
	c.lookups = 0
}

// cacheKey builds the coarse memoization fingerprint: series length, the
// last three raw sample values, and the sampling knobs. Two series with an
// identical length/tail/config collide intentionally — an acceptable
// approximation for a display heuristic.
func cacheKey(series []Sample, cfg VolatilityConfig) string {
	var tail [3]float64
	n := len(series)
	for i := 0; i < 3 && i < n; i++ {
		tail[i] = series[n-1-i].V
	}
	return fmt.Sprintf("%d|%g,%g,%g|%d|%d", n, tail[0], tail[1], tail[2],
		cfg.SampleSize, cfg.MinSeriesLength)
}

// computeVolatility quantifies how erratically the most recent samples of
// a series behave, on a bounded [0, 10] scale.
//
// The pipeline: require a minimum series length, take the last SampleSize
// samples, coerce non-finite values to 0 (keeps index alignment; toggled
// by CoerceInvalid), trim IQR outliers, then return the coefficient of
// variation of what remains, clamped to the ceiling. Short or degenerate
// input returns 0 — not enough signal is not an error.
func computeVolatility(series []Sample, cfg VolatilityConfig, logger *slog.Logger) float64 {
	if len(series) < cfg.MinSeriesLength {
		return 0
	}

	window := series
	if cfg.SampleSize > 0 && len(window) > cfg.SampleSize {
		window = window[len(window)-cfg.SampleSize:]
	}

	values := make([]float64, 0, len(window))
	coerced := 0
	for _, s := range window {
		v := s.V
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if !cfg.CoerceInvalid {
				continue
			}
			v = 0
			coerced++
		}
		values = append(values, v)
	}
	if coerced > 0 {
		logger.Warn("health: coerced non-finite samples to 0", "count", coerced)
	}
	if len(values) < 2 {
		return 0
	}

	trimmed := trimOutliers(values)
	if len(trimmed) < 2 {
		return 0
	}

	mean, stdDev := meanStdDev(trimmed)
	cv := stdDev
	if mean != 0 {
		cv = stdDev / math.Abs(mean)
	}
	return clamp(cv, 0, volatilityCeiling)
}

// trimOutliers drops values outside [Q1 - 1.5·IQR, Q3 + 1.5·IQR].
// Quartiles use sorted positional indexing.
func trimOutliers(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	q1 := sorted[(n-1)/4]
	q3 := sorted[(n-1)*3/4]
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	kept := make([]float64, 0, n)
	for _, v := range values {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	return kept
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
