package health

// Entry kinds. Anything else is rejected during validation.
const (
	KindDTC  = "dtc"
	KindLive = "live"
)

// Sample is one point of a live metric time series.
// T is epoch milliseconds; series are ordered time-ascending but not
// necessarily evenly spaced — gaps and jitter are expected.
type Sample struct {
	T int64   `json:"t"`
	V float64 `json:"v"`
}

// Entry is a single diagnostic observation, either a stored trouble code
// (kind "dtc") or a live sensor metric (kind "live").
type Entry struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Severity string `json:"severity"` // raw tag; normalized on read
	Category string `json:"category"`
	// Timestamp is epoch milliseconds of the observation; 0 means unknown.
	Timestamp int64 `json:"timestamp,omitempty"`

	// DTC-specific: the fault code identifier (e.g. "P0301").
	Code string `json:"code,omitempty"`

	// Live-specific: current reading, unit, and recent samples.
	Value  float64  `json:"value,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Series []Sample `json:"series,omitempty"`
}

// History is the aggregate behavioral record for one vehicle.
// Ratios are clamped to their valid range during sanitization — raw
// values are never trusted.
type History struct {
	CleanSessionStreak int     `json:"cleanSessionStreak"`
	RecentSessionCount int     `json:"recentSessionCount"`
	UptimeRatio        float64 `json:"uptimeRatio"`     // 0..1
	SensorCoverage     float64 `json:"sensorCoverage"`  // 0..1
	HarshEventCount    int     `json:"harshEventCount"`
	EfficiencyTrend    float64 `json:"efficiencyTrend"` // -1..1
	DTCHistoryDays     int     `json:"dtcHistoryDays"`
}

// MaintenanceItem is one outstanding or overdue service item.
type MaintenanceItem struct {
	Label         string  `json:"label"`
	Severity      string  `json:"severity"`
	OverdueDays   int     `json:"overdueDays"`
	Category      string  `json:"category"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// Contributor is a labeled, signed delta explaining part of the score's
// distance from 100. Penalties carry a negative Impact, bonuses positive.
type Contributor struct {
	Label     string  `json:"label"`
	Type      string  `json:"type"` // dtc | live | maintenance | driving | bonus
	Severity  string  `json:"severity,omitempty"`
	Impact    float64 `json:"impact"`
	Value     float64 `json:"value,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Volatile  bool    `json:"volatile,omitempty"`
	Sustained bool    `json:"sustained,omitempty"`
}

// Breakdown holds penalty and bonus subtotals by category.
type Breakdown struct {
	Penalties map[string]float64 `json:"penalties"`
	Bonuses   map[string]float64 `json:"bonuses"`
}

// Recommendation is one ranked advisory emitted for a top contributor.
type Recommendation struct {
	Priority  string `json:"priority"` // high | medium | low
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// Metadata carries diagnostics about the computation itself.
type Metadata struct {
	EntryCount           int     `json:"entryCount"`
	DiscardedEntries     int     `json:"discardedEntries"`
	DiscardedMaintenance int     `json:"discardedMaintenance"`
	ElapsedMs            float64 `json:"elapsedMs"`
	CacheHits            int     `json:"cacheHits"`
	CacheLookups         int     `json:"cacheLookups"`
	CacheUtilization     float64 `json:"cacheUtilization"` // hits / lookups, 0 when no lookups
	BandColor            string  `json:"bandColor"`
	BandPriority         int     `json:"bandPriority"`
	Degraded             bool    `json:"degraded,omitempty"`
	Error                string  `json:"error,omitempty"`
}

// Result is the full health assessment returned by Engine.Compute.
// Field names are the de facto contract consumed by dashboard renderers
// and must stay stable.
type Result struct {
	Score           int              `json:"score"`      // 0–100
	Confidence      int              `json:"confidence"` // 0–100
	Band            string           `json:"band"`
	Contributors    []Contributor    `json:"contributors"`
	Breakdown       Breakdown        `json:"breakdown"`
	Recommendations []Recommendation `json:"recommendations"`
	Metadata        Metadata         `json:"metadata"`
}
