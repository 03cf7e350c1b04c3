package health

import (
	"math"
	"time"
)

// computeConfidence blends data-completeness signals into a 0–100 trust
// score for the headline number. Each factor is normalized to [0,1] and
// weighted per config; the weights are intended to sum to 1 but are not
// forced to.
func computeConfidence(entries []Entry, h History, maintenance []MaintenanceItem,
	cfg ConfidenceConfig, now time.Time) int {

	sessionFactor := 1.0
	if cfg.SessionTarget > 0 {
		sessionFactor = clamp(float64(h.RecentSessionCount)/float64(cfg.SessionTarget), 0, 1)
	}

	historyFactor := 1.0
	if cfg.DTCHistoryTarget > 0 {
		historyFactor = clamp(float64(h.DTCHistoryDays)/float64(cfg.DTCHistoryTarget), 0, 1)
	}

	maintenanceFactor := 0.0
	if len(maintenance) > 0 {
		maintenanceFactor = 1.0
	}

	score := (h.UptimeRatio*cfg.UptimeWeight +
		h.SensorCoverage*cfg.CoverageWeight +
		sessionFactor*cfg.SessionWeight +
		historyFactor*cfg.DTCHistoryWeight +
		maintenanceFactor*cfg.MaintenanceWeight +
		recencyFactor(entries, cfg.MaxEntryAgeDays, now)*cfg.RecencyWeight) * 100

	return int(math.Round(clamp(score, 0, 100)))
}

// recencyFactor degrades linearly with the mean age of timestamped
// entries: 1 when data is fresh, 0 once the average age reaches maxAge
// days. Entries without timestamps are skipped; with no timestamped
// entries at all there is no staleness evidence and the factor stays 1.
func recencyFactor(entries []Entry, maxAgeDays float64, now time.Time) float64 {
	if maxAgeDays <= 0 {
		return 1
	}
	var totalDays float64
	counted := 0
	for _, e := range entries {
		if e.Timestamp <= 0 {
			continue
		}
		age := now.Sub(time.UnixMilli(e.Timestamp))
		if age < 0 {
			age = 0
		}
		totalDays += age.Hours() / 24
		counted++
	}
	if counted == 0 {
		return 1
	}
	meanAge := totalDays / float64(counted)
	return clamp(1-meanAge/maxAgeDays, 0, 1)
}
