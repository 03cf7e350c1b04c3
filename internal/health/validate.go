package health

import (
	"encoding/json"
	"log/slog"
	"math"
)

// DecodeEntries parses untrusted JSON into entries. It never returns an
// error: a document that is not an array (or not JSON at all) yields an
// empty set, and malformed elements are counted and skipped. The second
// return value is the number of discarded elements.
func DecodeEntries(data []byte, logger *slog.Logger) ([]Entry, int) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("health: entries input is not an array, treating as empty", "err", err)
		return nil, 0
	}
	entries := make([]Entry, 0, len(raw))
	discarded := 0
	for i, msg := range raw {
		var e Entry
		if err := json.Unmarshal(msg, &e); err != nil {
			discarded++
			logger.Warn("health: discarding malformed entry", "index", i, "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, discarded
}

// DecodeMaintenance parses untrusted JSON into maintenance items with the
// same degrade-never-fail contract as DecodeEntries.
func DecodeMaintenance(data []byte, logger *slog.Logger) ([]MaintenanceItem, int) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("health: maintenance input is not an array, treating as empty", "err", err)
		return nil, 0
	}
	items := make([]MaintenanceItem, 0, len(raw))
	discarded := 0
	for i, msg := range raw {
		var item MaintenanceItem
		if err := json.Unmarshal(msg, &item); err != nil {
			discarded++
			logger.Warn("health: discarding malformed maintenance item", "index", i, "err", err)
			continue
		}
		items = append(items, item)
	}
	return items, discarded
}

// filterEntries keeps only structurally valid entries: a known kind, and
// finite numeric fields. Invalid entries are dropped, never repaired into
// a different kind. Returns the valid set and the discard count.
func filterEntries(entries []Entry, logger *slog.Logger) ([]Entry, int) {
	valid := make([]Entry, 0, len(entries))
	discarded := 0
	for _, e := range entries {
		switch e.Kind {
		case KindDTC, KindLive:
			valid = append(valid, e)
		default:
			discarded++
			logger.Warn("health: discarding entry with unknown kind",
				"kind", e.Kind, "id", e.ID)
		}
	}
	return valid, discarded
}

// sanitizeHistory clamps every History field into its valid range. Raw
// values are never trusted: ratios land in [0,1], the trend in [-1,1],
// and counts are floored at 0.
func sanitizeHistory(h History) History {
	h.UptimeRatio = clamp(finiteOr(h.UptimeRatio, 0), 0, 1)
	h.SensorCoverage = clamp(finiteOr(h.SensorCoverage, 0), 0, 1)
	h.EfficiencyTrend = clamp(finiteOr(h.EfficiencyTrend, 0), -1, 1)
	h.CleanSessionStreak = maxInt(h.CleanSessionStreak, 0)
	h.RecentSessionCount = maxInt(h.RecentSessionCount, 0)
	h.HarshEventCount = maxInt(h.HarshEventCount, 0)
	h.DTCHistoryDays = maxInt(h.DTCHistoryDays, 0)
	return h
}

// filterMaintenance drops items without a label and clamps numeric fields
// at 0. A missing severity normalizes to "unknown" later; that is not a
// reason to discard the item.
func filterMaintenance(items []MaintenanceItem) ([]MaintenanceItem, int) {
	valid := make([]MaintenanceItem, 0, len(items))
	discarded := 0
	for _, item := range items {
		if item.Label == "" {
			discarded++
			continue
		}
		item.OverdueDays = maxInt(item.OverdueDays, 0)
		if item.EstimatedCost < 0 || math.IsNaN(item.EstimatedCost) {
			item.EstimatedCost = 0
		}
		valid = append(valid, item)
	}
	return valid, discarded
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func maxInt(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}
