package efficiency

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Charger type categories.
const (
	ChargerHomeAC       = "home_ac"
	ChargerPublicAC     = "public_ac"
	ChargerDCFast       = "dc_fast"
	ChargerSupercharger = "supercharger"
	ChargerUnknown      = "unknown"
)

// Efficiency rating thresholds in cost per kWh.
const (
	thresholdExcellent = 0.12
	thresholdGood      = 0.20
	thresholdFair      = 0.35
)

// socUnknown marks an absent state-of-charge reading.
const socUnknown = -1

// Session is one normalized charging session.
type Session struct {
	Date            time.Time
	Location        string
	ChargerType     string // raw hint from the export, categorized during analysis
	EnergyKWh       float64
	Cost            float64
	DurationMinutes float64 // 0 when unknown
	StartSOC        float64 // percent; socUnknown when absent
	EndSOC          float64 // percent; socUnknown when absent
}

// Metric is the efficiency result for a set of sessions.
type Metric struct {
	KWhPerDollar float64 `json:"kwhPerDollar"`
	CostPerKWh   float64 `json:"costPerKwh"`
	SpeedKW      float64 `json:"chargingSpeedKw,omitempty"` // 0 when duration unknown
	Rating       string  `json:"rating"`                    // excellent | good | fair | poor
}

// Pattern summarizes charging behavior across the analyzed window.
type Pattern struct {
	AvgSessionEnergy float64  `json:"avgSessionEnergyKwh"`
	PreferredTypes   []string `json:"preferredChargerTypes"`
	PeakHours        []int    `json:"peakUsageHours"`
	WeekendRatio     float64  `json:"weekendVsWeekdayRatio"`
	AvgStartSOC      float64  `json:"avgSocStart"` // socUnknown when no data
	AvgEndSOC        float64  `json:"avgSocEnd"`
}

// Analysis is the complete charging-efficiency assessment.
type Analysis struct {
	Overall          Metric             `json:"overall"`
	ByChargerType    map[string]Metric  `json:"byChargerType"`
	ByLocation       map[string]Metric  `json:"byLocation"`
	Patterns         Pattern            `json:"patterns"`
	Trends           map[string]float64 `json:"trends"`
	Recommendations  []string           `json:"recommendations"`
	SavingsPotential float64            `json:"potentialAnnualSavings"`
}

// Analyze runs the full efficiency analysis over the given sessions.
// Sessions with non-positive energy or negative cost are dropped first;
// with nothing usable left, an error is returned.
func Analyze(sessions []Session) (*Analysis, error) {
	work := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if s.EnergyKWh > 0 && s.Cost >= 0 {
			work = append(work, s)
		}
	}
	if len(work) == 0 {
		return nil, fmt.Errorf("efficiency: no usable sessions")
	}

	var totalEnergy, totalCost, totalDuration float64
	durations := 0
	for _, s := range work {
		totalEnergy += s.EnergyKWh
		totalCost += s.Cost
		if s.DurationMinutes > 0 {
			totalDuration += s.DurationMinutes
			durations++
		}
	}
	avgDuration := 0.0
	if durations > 0 {
		avgDuration = totalDuration / float64(durations)
	}

	a := &Analysis{
		Overall:       metricFor(totalEnergy, totalCost, avgDuration),
		ByChargerType: groupByChargerType(work),
		ByLocation:    groupByLocation(work, totalEnergy),
		Patterns:      analyzePatterns(work),
		Trends:        analyzeTrends(work),
	}
	a.Recommendations = recommendations(a)
	a.SavingsPotential = savingsPotential(a, totalEnergy)
	return a, nil
}

// EfficiencyTrend condenses the monthly cost-per-kWh slope into the
// [-1, 1] trend value the health engine's History expects: positive when
// charging is getting cheaper, negative when it is getting dearer.
func (a *Analysis) EfficiencyTrend() float64 {
	slope, ok := a.Trends["monthlyCostPerKwhTrend"]
	if !ok || a.Overall.CostPerKWh <= 0 {
		return 0
	}
	normalized := -slope / a.Overall.CostPerKWh
	if normalized < -1 {
		return -1
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// metricFor computes the efficiency metric for aggregated sessions.
func metricFor(energyKWh, cost, durationMinutes float64) Metric {
	m := Metric{}
	if energyKWh > 0 {
		m.CostPerKWh = cost / energyKWh
	}
	if cost > 0 {
		m.KWhPerDollar = energyKWh / cost
	}
	if durationMinutes > 0 {
		m.SpeedKW = energyKWh * 60 / durationMinutes
	}
	m.Rating = rateEfficiency(m.CostPerKWh)
	return m
}

// rateEfficiency maps cost per kWh to a named rating tier.
func rateEfficiency(costPerKWh float64) string {
	switch {
	case costPerKWh <= thresholdExcellent:
		return "excellent"
	case costPerKWh <= thresholdGood:
		return "good"
	case costPerKWh <= thresholdFair:
		return "fair"
	default:
		return "poor"
	}
}

// CategorizeCharger buckets a charger using the text hint first and the
// implied power (energy over duration) as a fallback.
func CategorizeCharger(hint string, energyKWh, durationMinutes float64) string {
	text := strings.ToLower(hint)
	switch {
	case strings.Contains(text, "supercharger") || strings.Contains(text, "tesla sc"):
		return ChargerSupercharger
	case strings.Contains(text, "dc") || strings.Contains(text, "fast") ||
		strings.Contains(text, "rapid") || strings.Contains(text, "ccs") ||
		strings.Contains(text, "chademo"):
		return ChargerDCFast
	case strings.Contains(text, "home") || strings.Contains(text, "residential") ||
		strings.Contains(text, "garage"):
		return ChargerHomeAC
	case strings.Contains(text, "public") || strings.Contains(text, "level 2") ||
		strings.Contains(text, "l2") || strings.Contains(text, "ac"):
		return ChargerPublicAC
	}

	if durationMinutes > 0 && energyKWh > 0 {
		powerKW := energyKWh * 60 / durationMinutes
		switch {
		case powerKW > 120:
			return ChargerSupercharger
		case powerKW > 80:
			return ChargerDCFast
		case powerKW > 15:
			return ChargerPublicAC
		default:
			return ChargerHomeAC
		}
	}
	return ChargerUnknown
}

func groupByChargerType(sessions []Session) map[string]Metric {
	type agg struct {
		energy, cost, duration float64
		durations              int
	}
	groups := make(map[string]*agg)
	for _, s := range sessions {
		ct := CategorizeCharger(s.ChargerType, s.EnergyKWh, s.DurationMinutes)
		g, ok := groups[ct]
		if !ok {
			g = &agg{}
			groups[ct] = g
		}
		g.energy += s.EnergyKWh
		g.cost += s.Cost
		if s.DurationMinutes > 0 {
			g.duration += s.DurationMinutes
			g.durations++
		}
	}
	out := make(map[string]Metric, len(groups))
	for ct, g := range groups {
		if g.energy <= 0 {
			continue
		}
		avgDur := 0.0
		if g.durations > 0 {
			avgDur = g.duration / float64(g.durations)
		}
		out[ct] = metricFor(g.energy, g.cost, avgDur)
	}
	return out
}

// groupByLocation keeps only locations carrying at least 5% of the total
// energy, so one-off stops do not clutter the comparison.
func groupByLocation(sessions []Session, totalEnergy float64) map[string]Metric {
	type agg struct{ energy, cost float64 }
	groups := make(map[string]*agg)
	for _, s := range sessions {
		loc := strings.TrimSpace(s.Location)
		if loc == "" {
			continue
		}
		g, ok := groups[loc]
		if !ok {
			g = &agg{}
			groups[loc] = g
		}
		g.energy += s.EnergyKWh
		g.cost += s.Cost
	}
	threshold := 0.05 * totalEnergy
	out := make(map[string]Metric)
	for loc, g := range groups {
		if g.energy >= threshold {
			out[loc] = metricFor(g.energy, g.cost, 0)
		}
	}
	return out
}

func analyzePatterns(sessions []Session) Pattern {
	p := Pattern{WeekendRatio: 1, AvgStartSOC: socUnknown, AvgEndSOC: socUnknown}

	var energy float64
	typeCounts := make(map[string]int)
	hourCounts := make(map[int]int)
	weekend, weekday := 0, 0
	var socStartSum, socEndSum float64
	socStarts, socEnds := 0, 0

	for _, s := range sessions {
		energy += s.EnergyKWh
		typeCounts[CategorizeCharger(s.ChargerType, s.EnergyKWh, s.DurationMinutes)]++
		if !s.Date.IsZero() {
			hourCounts[s.Date.Hour()]++
			switch s.Date.Weekday() {
			case time.Saturday, time.Sunday:
				weekend++
			default:
				weekday++
			}
		}
		if s.StartSOC >= 0 {
			socStartSum += s.StartSOC
			socStarts++
		}
		if s.EndSOC >= 0 {
			socEndSum += s.EndSOC
			socEnds++
		}
	}

	p.AvgSessionEnergy = energy / float64(len(sessions))
	p.PreferredTypes = topKeys(typeCounts, 3)
	p.PeakHours = topHours(hourCounts, 3)
	if weekday > 0 {
		p.WeekendRatio = float64(weekend) / float64(weekday)
	}
	if socStarts > 0 {
		p.AvgStartSOC = socStartSum / float64(socStarts)
	}
	if socEnds > 0 {
		p.AvgEndSOC = socEndSum / float64(socEnds)
	}
	return p
}

// analyzeTrends derives simple first-to-last slopes over monthly means.
// Fewer than 6 sessions or 3 distinct months yields no trends.
func analyzeTrends(sessions []Session) map[string]float64 {
	out := make(map[string]float64)
	if len(sessions) < 6 {
		return out
	}

	type monthAgg struct {
		cost, energy, costPerKWh float64
		n                        int
	}
	months := make(map[string]*monthAgg)
	for _, s := range sessions {
		if s.Date.IsZero() {
			continue
		}
		key := s.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &monthAgg{}
			months[key] = m
		}
		m.cost += s.Cost
		m.energy += s.EnergyKWh
		m.costPerKWh += s.Cost / s.EnergyKWh
		m.n++
	}
	if len(months) < 3 {
		return out
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slope := func(pick func(*monthAgg) float64) float64 {
		first := months[keys[0]]
		last := months[keys[len(keys)-1]]
		span := float64(len(keys) - 1)
		return (pick(last)/float64(last.n) - pick(first)/float64(first.n)) / span
	}

	out["monthlyCostTrend"] = slope(func(m *monthAgg) float64 { return m.cost })
	out["monthlyCostPerKwhTrend"] = slope(func(m *monthAgg) float64 { return m.costPerKWh })
	out["monthlyEnergyTrend"] = slope(func(m *monthAgg) float64 { return m.energy })
	return out
}

func recommendations(a *Analysis) []string {
	var recs []string

	if a.Overall.CostPerKWh > 0.25 {
		recs = append(recs, fmt.Sprintf(
			"Average cost per kWh ($%.3f) is high. Prefer home/off-peak charging or cheaper public stations.",
			a.Overall.CostPerKWh))
	}

	if len(a.ByChargerType) > 1 {
		bestLabel, worstLabel := "", ""
		best, worst := math.Inf(1), math.Inf(-1)
		for label, m := range a.ByChargerType {
			if m.CostPerKWh < best || (m.CostPerKWh == best && label < bestLabel) {
				best, bestLabel = m.CostPerKWh, label
			}
			if m.CostPerKWh > worst || (m.CostPerKWh == worst && label < worstLabel) {
				worst, worstLabel = m.CostPerKWh, label
			}
		}
		if worst-best > 0.10 {
			recs = append(recs, fmt.Sprintf(
				"Large price gap across charger types: %s ($%.3f/kWh) vs %s ($%.3f/kWh). Prefer %s.",
				bestLabel, best, worstLabel, worst, bestLabel))
		}
	}

	if len(a.ByLocation) > 2 {
		type locCost struct {
			name string
			cost float64
		}
		locs := make([]locCost, 0, len(a.ByLocation))
		for name, m := range a.ByLocation {
			locs = append(locs, locCost{name, m.CostPerKWh})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].cost != locs[j].cost {
				return locs[i].cost < locs[j].cost
			}
			return locs[i].name < locs[j].name
		})
		recs = append(recs, fmt.Sprintf(
			"Most cost-effective locations: %s ($%.3f/kWh), %s ($%.3f/kWh)",
			locs[0].name, locs[0].cost, locs[1].name, locs[1].cost))
	}

	if a.Patterns.AvgStartSOC >= 0 && a.Patterns.AvgStartSOC < 20 {
		recs = append(recs, fmt.Sprintf(
			"Charges often start at low SOC (~%.0f%%). Starting earlier (>=20%%) is gentler on the battery.",
			a.Patterns.AvgStartSOC))
	}
	if a.Patterns.AvgEndSOC > 90 {
		recs = append(recs, fmt.Sprintf(
			"Charges frequently end at high SOC (~%.0f%%). Limit daily targets to 80-90%% to reduce degradation.",
			a.Patterns.AvgEndSOC))
	}

	for _, h := range a.Patterns.PeakHours {
		if h >= 17 && h <= 20 {
			recs = append(recs,
				"Charging often occurs during peak hours (5-8 PM). Shift to off-peak (11 PM-6 AM) to save.")
			break
		}
	}

	if a.Patterns.AvgSessionEnergy > 0 && a.Patterns.AvgSessionEnergy < 10 {
		recs = append(recs, fmt.Sprintf(
			"Average session size is small (~%.1f kWh). Consolidating sessions can reduce idle/overhead costs.",
			a.Patterns.AvgSessionEnergy))
	}

	return recs
}

// savingsPotential estimates conservative annual savings from shifting
// the charging mix to the cheapest observed option. The dataset is
// assumed to cover roughly 90 days and only 60% of usage is treated as
// realistically optimizable.
func savingsPotential(a *Analysis, totalEnergyKWh float64) float64 {
	if totalEnergyKWh <= 0 || len(a.ByChargerType) == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, m := range a.ByChargerType {
		if m.CostPerKWh < best {
			best = m.CostPerKWh
		}
	}
	perKWh := a.Overall.CostPerKWh - best
	if perKWh <= 0 {
		return 0
	}
	annualKWh := totalEnergyKWh * (365.0 / 90.0)
	return perKWh * annualKWh * 0.6
}

// topKeys returns the k most frequent keys, count descending with name
// as the deterministic tie-break.
func topKeys(counts map[string]int, k int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

func topHours(counts map[int]int, k int) []int {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > k {
		hours = hours[:k]
	}
	return hours
}
