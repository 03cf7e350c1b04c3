package health

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"
)

// degradedScore is the fixed score returned when the pipeline itself
// fails. Callers render a live dashboard that must never crash because of
// a scoring failure, so Compute converts any panic into this result.
const degradedScore = 50

// Engine is the vehicle health scoring engine. It owns the volatility
// memoization cache and a cumulative performance counter — explicit
// instance state rather than package globals, so tests do not leak into
// each other and a multi-tenant host can isolate vehicles per engine.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	cache  *volatilityCache
	logger *slog.Logger
	now    func() time.Time // injectable for deterministic tests

	// cumulative across Compute calls, reset by ClearCaches
	calls   int
	elapsed time.Duration
}

// Stats is the cumulative performance counter exposed for external
// benchmarking.
type Stats struct {
	Calls        int
	TotalElapsed time.Duration
}

// NewEngine returns a ready-to-use Engine. A nil logger discards all
// diagnostic output.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		cache:  newVolatilityCache(),
		logger: logger,
		now:    time.Now,
	}
}

// Compute derives the full health assessment from diagnostic entries,
// behavioral history, and maintenance items. The override config is
// merged over the immutable defaults per call; pass nil to score with
// defaults.
//
// Compute never panics out to the caller: any internal failure is
// converted into a degraded result (score 50, confidence 0, band
// "unknown") with the error preserved in metadata.
func (e *Engine) Compute(entries []Entry, history History,
	maintenance []MaintenanceItem, override *Overrides) (result Result) {

	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	defer func() {
		elapsed := e.now().Sub(start)
		e.calls++
		e.elapsed += elapsed

		if r := recover(); r != nil {
			e.logger.Error("health: scoring failed, returning degraded result", "panic", r)
			result = degradedResult(fmt.Sprintf("%v", r), elapsed)
			return
		}
		result.Metadata.ElapsedMs = float64(elapsed.Microseconds()) / 1000
	}()

	cfg := mergedConfig(override)

	valid, discardedEntries := filterEntries(entries, e.logger)
	hist := sanitizeHistory(history)
	maint, discardedMaint := filterMaintenance(maintenance)

	dtc := dtcPenalty(valid, cfg.DTC)
	live := livePenalty(valid, cfg.Live, cfg.Volatility, e.cache, e.logger)
	m := maintenancePenalty(maint, cfg.Maintenance)
	driving := drivingPenalty(hist, cfg.Driving)
	bonuses := computeBonuses(hist, cfg.Bonuses)

	totalPenalty := dtc.total + live.total + m.total + driving.total
	score := clamp(100-totalPenalty+bonuses.total(), 0, 100)
	rounded := int(math.Round(score))

	all := make([]Contributor, 0,
		len(dtc.contributors)+len(live.contributors)+len(m.contributors)+
			len(driving.contributors)+len(bonuses.contributors))
	all = append(all, dtc.contributors...)
	all = append(all, live.contributors...)
	all = append(all, m.contributors...)
	all = append(all, driving.contributors...)
	all = append(all, bonuses.contributors...)

	band := classifyBand(float64(rounded), cfg.Bands)

	result = Result{
		Score:        rounded,
		Confidence:   computeConfidence(valid, hist, maint, cfg.Confidence, e.now()),
		Band:         band.Name,
		Contributors: topContributors(all, cfg.TopContributors),
		Breakdown: Breakdown{
			Penalties: map[string]float64{
				"dtc":         dtc.total,
				"live":        live.total,
				"maintenance": m.total,
				"driving":     driving.total,
			},
			Bonuses: map[string]float64{
				"recoveryBonus":   bonuses.recovery,
				"efficiencyBonus": bonuses.efficiency,
			},
		},
		Recommendations: recommend(all, cfg.TopRecommendations),
		Metadata: Metadata{
			EntryCount:           len(valid),
			DiscardedEntries:     discardedEntries,
			DiscardedMaintenance: discardedMaint,
			CacheHits:            e.cache.hits,
			CacheLookups:         e.cache.lookups,
			CacheUtilization:     cacheUtilization(e.cache),
			BandColor:            band.Color,
			BandPriority:         band.Priority,
		},
	}
	return result
}

// ClearCaches empties the volatility cache and resets the cumulative
// performance counter. The only way shared engine state is ever reset.
func (e *Engine) ClearCaches() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.clear()
	e.calls = 0
	e.elapsed = 0
}

// Stats returns the cumulative call count and elapsed time.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{Calls: e.calls, TotalElapsed: e.elapsed}
}

// topContributors sorts by absolute impact descending and keeps the top
// N. Ties break deterministically on label so repeated calls with equal
// input produce identical output.
func topContributors(all []Contributor, n int) []Contributor {
	sorted := append([]Contributor(nil), all...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := math.Abs(sorted[i].Impact), math.Abs(sorted[j].Impact)
		if ai != aj {
			return ai > aj
		}
		return sorted[i].Label < sorted[j].Label
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func cacheUtilization(c *volatilityCache) float64 {
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups)
}

// degradedResult is the fixed fallback when the pipeline panics.
func degradedResult(errMsg string, elapsed time.Duration) Result {
	return Result{
		Score:        degradedScore,
		Confidence:   0,
		Band:         "unknown",
		Contributors: []Contributor{},
		Breakdown: Breakdown{
			Penalties: map[string]float64{},
			Bonuses:   map[string]float64{},
		},
		Recommendations: []Recommendation{{
			Priority:  "high",
			Action:    "review diagnostic data",
			Rationale: "health scoring failed on this input",
		}},
		Metadata: Metadata{
			Degraded:  true,
			Error:     errMsg,
			ElapsedMs: float64(elapsed.Microseconds()) / 1000,
		},
	}
}
