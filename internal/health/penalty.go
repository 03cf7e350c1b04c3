package health

import (
	"log/slog"
	"math"
)

// penaltyOutcome is the shared result shape of every penalty calculator:
// a capped total plus the contributors that produced it.
type penaltyOutcome struct {
	total        float64
	contributors []Contributor
}

// dtcPenalty converts stored trouble codes into a capped penalty. Each
// code contributes its severity-tier base scaled by the category weight,
// rounded to an integer. More faults cannot push the total past the cap.
func dtcPenalty(entries []Entry, cfg DTCConfig) penaltyOutcome {
	var out penaltyOutcome
	for _, e := range entries {
		if e.Kind != KindDTC {
			continue
		}
		sev := normalizeSeverity(e.Severity)
		base := severityTier(sev, cfg.Ok, cfg.Warn, cfg.Crit, cfg.Unknown)
		weight := 1.0
		if w, ok := cfg.CategoryWeights[e.Category]; ok {
			weight = w
		}
		p := math.Round(base * weight)

		out.total += p
		out.contributors = append(out.contributors, Contributor{
			Label:    entryLabel(e),
			Type:     KindDTC,
			Severity: sev,
			Impact:   -p,
		})
	}
	out.total = math.Min(out.total, cfg.Cap)
	return out
}

// livePenalty converts out-of-range live metrics into a capped penalty.
// A metric's base tier can be raised by a volatility surcharge and, when
// the recent samples hold a tight cluster around an out-of-range level,
// multiplied by the sustained-issue factor.
func livePenalty(entries []Entry, cfg LiveConfig, vcfg VolatilityConfig,
	cache *volatilityCache, logger *slog.Logger) penaltyOutcome {

	var out penaltyOutcome
	for _, e := range entries {
		if e.Kind != KindLive {
			continue
		}
		sev := normalizeSeverity(e.Severity)
		if sev == SeverityOk {
			continue
		}
		p := severityTier(sev, 0, cfg.Warn, cfg.Crit, cfg.Unknown)

		volatile := false
		if len(e.Series) > 0 {
			v := cachedVolatility(e.Series, vcfg, cache, logger)
			if v > cfg.VolatilityThreshold {
				p += cfg.VolatilityBonus
				volatile = true
			}
		}

		sustained := isSustained(e.Series, cfg)
		if sustained {
			p *= cfg.SustainedMultiplier
		}

		out.total += p
		out.contributors = append(out.contributors, Contributor{
			Label:     entryLabel(e),
			Type:      KindLive,
			Severity:  sev,
			Impact:    -p,
			Value:     e.Value,
			Unit:      e.Unit,
			Volatile:  volatile,
			Sustained: sustained,
		})
	}
	out.total = math.Min(out.total, cfg.Cap)
	return out
}

// cachedVolatility memoizes computeVolatility behind the TTL cache when
// caching is enabled.
func cachedVolatility(series []Sample, vcfg VolatilityConfig,
	cache *volatilityCache, logger *slog.Logger) float64 {

	if !vcfg.CacheEnabled || cache == nil {
		return computeVolatility(series, vcfg, logger)
	}
	key := cacheKey(series, vcfg)
	if v, ok := cache.get(key, vcfg.CacheTTL); ok {
		return v
	}
	v := computeVolatility(series, vcfg, logger)
	cache.put(key, v, vcfg.CacheMaxSize)
	return v
}

// isSustained reports whether the last SustainedWindow samples cluster
// tightly around their local mean — a metric holding a stable out-of-range
// level rather than spiking transiently. The measure is mean absolute
// deviation as a fraction of |mean|; a zero mean falls back to 0 relative
// deviation, which never reads as sustained.
func isSustained(series []Sample, cfg LiveConfig) bool {
	if len(series) < cfg.SustainedMinSamples {
		return false
	}
	window := series
	if cfg.SustainedWindow > 0 && len(window) > cfg.SustainedWindow {
		window = window[len(window)-cfg.SustainedWindow:]
	}

	var sum float64
	for _, s := range window {
		sum += s.V
	}
	mean := sum / float64(len(window))
	if mean == 0 {
		return false
	}

	var mad float64
	for _, s := range window {
		mad += math.Abs(s.V - mean)
	}
	mad /= float64(len(window))

	return mad/math.Abs(mean) < cfg.SustainedTightness
}

// maintenancePenalty converts outstanding service items into a capped
// penalty: severity tier, plus a stepped overdue surcharge, amplified for
// expensive items.
func maintenancePenalty(items []MaintenanceItem, cfg MaintenanceConfig) penaltyOutcome {
	var out penaltyOutcome
	for _, item := range items {
		sev := normalizeSeverity(item.Severity)
		p := severityTier(sev, cfg.Ok, cfg.Warn, cfg.Crit, cfg.Unknown)

		for i, step := range cfg.OverdueSteps {
			if item.OverdueDays >= step {
				p += float64(i + 1)
			}
		}

		switch {
		case item.EstimatedCost >= cfg.CostHighThreshold:
			p *= cfg.CostHighMultiplier
		case item.EstimatedCost >= cfg.CostMediumThreshold:
			p *= cfg.CostMediumMultiplier
		}

		out.total += p
		out.contributors = append(out.contributors, Contributor{
			Label:    item.Label,
			Type:     "maintenance",
			Severity: sev,
			Impact:   -p,
		})
	}
	out.total = math.Min(out.total, cfg.Cap)
	return out
}

// drivingPenalty runs two independent checks against the behavioral
// history: harsh-event excess and a declining efficiency trend. Each is
// individually capped, and the sum is capped again.
func drivingPenalty(h History, cfg DrivingConfig) penaltyOutcome {
	var out penaltyOutcome

	if h.HarshEventCount > cfg.HarshEventThreshold {
		excess := float64(h.HarshEventCount - cfg.HarshEventThreshold)
		p := math.Min(excess*cfg.HarshEventRate, cfg.HarshEventCap)
		out.total += p
		out.contributors = append(out.contributors, Contributor{
			Label:    "harsh driving events",
			Type:     "driving",
			Severity: SeverityWarn,
			Impact:   -p,
			Value:    float64(h.HarshEventCount),
		})
	}

	if h.EfficiencyTrend < cfg.TrendThreshold {
		p := math.Min(math.Abs(h.EfficiencyTrend)*cfg.TrendRate, cfg.TrendCap)
		out.total += p
		out.contributors = append(out.contributors, Contributor{
			Label:    "declining fuel efficiency",
			Type:     "driving",
			Severity: SeverityWarn,
			Impact:   -p,
			Value:    h.EfficiencyTrend,
		})
	}

	out.total = math.Min(out.total, cfg.Cap)
	return out
}

// severityTier selects the base penalty for a normalized severity.
func severityTier(sev string, ok, warn, crit, unknown float64) float64 {
	switch sev {
	case SeverityOk:
		return ok
	case SeverityWarn:
		return warn
	case SeverityCrit:
		return crit
	default:
		return unknown
	}
}

// entryLabel prefers the human title, falling back to code, then id.
func entryLabel(e Entry) string {
	switch {
	case e.Title != "":
		return e.Title
	case e.Code != "":
		return e.Code
	default:
		return e.ID
	}
}
