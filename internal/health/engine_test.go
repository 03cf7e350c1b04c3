package health

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func newTestEngine() *Engine {
	return NewEngine(testLogger)
}

// --- range properties ---

func TestCompute_ScoreAndConfidenceAlwaysInRange(t *testing.T) {
	e := newTestEngine()
	inputs := []struct {
		name    string
		entries []Entry
		history History
		maint   []MaintenanceItem
	}{
		{"empty everything", nil, History{}, nil},
		{"hostile history", nil, History{UptimeRatio: -9, SensorCoverage: 42, EfficiencyTrend: -77}, nil},
		{"many crit faults", []Entry{
			dtcEntry("P0301", "crit", "safety"),
			dtcEntry("P0302", "crit", "safety"),
			dtcEntry("P0303", "crit", "safety"),
			{Kind: KindLive, ID: "a", Severity: "crit"},
			{Kind: KindLive, ID: "b", Severity: "crit"},
			{Kind: KindLive, ID: "c", Severity: "crit"},
		}, History{HarshEventCount: 99, EfficiencyTrend: -1}, []MaintenanceItem{
			{Label: "x", Severity: "crit", OverdueDays: 999, EstimatedCost: 9999},
		}},
	}
	for _, tc := range inputs {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Compute(tc.entries, tc.history, tc.maint, nil)
			if res.Score < 0 || res.Score > 100 {
				t.Errorf("score %d out of [0,100]", res.Score)
			}
			if res.Confidence < 0 || res.Confidence > 100 {
				t.Errorf("confidence %d out of [0,100]", res.Confidence)
			}
		})
	}
}

// --- idempotence and caching ---

func TestCompute_IdenticalInputsYieldIdenticalResults(t *testing.T) {
	e := newTestEngine()
	entries := []Entry{
		dtcEntry("P0420", "warn", "emissions"),
		{Kind: KindLive, ID: "coolantTempC", Severity: "warn", Value: 104,
			Series: seriesOf(100, 101, 103, 104, 102, 103, 104, 104)},
	}
	history := History{UptimeRatio: 0.9, SensorCoverage: 0.8, RecentSessionCount: 6}

	first := e.Compute(entries, history, nil, nil)
	second := e.Compute(entries, history, nil, nil)

	// Metadata carries timing and cache counters that legitimately differ.
	first.Metadata = Metadata{}
	second.Metadata = Metadata{}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\n%+v\n%+v", first, second)
	}
}

func TestCompute_SecondCallServedFromVolatilityCache(t *testing.T) {
	e := newTestEngine()
	entries := []Entry{
		{Kind: KindLive, ID: "coolantTempC", Severity: "warn", Value: 104,
			Series: seriesOf(100, 101, 103, 104, 102, 103, 104, 104)},
	}

	r1 := e.Compute(entries, History{}, nil, nil)
	r2 := e.Compute(entries, History{}, nil, nil)

	if r1.Metadata.CacheHits != 0 {
		t.Errorf("first call cache hits = %d, want 0", r1.Metadata.CacheHits)
	}
	if r2.Metadata.CacheHits <= r1.Metadata.CacheHits {
		t.Errorf("second call cache hits = %d, want an increase", r2.Metadata.CacheHits)
	}
	if r2.Metadata.CacheUtilization <= 0 {
		t.Errorf("cacheUtilization = %.2f, want > 0", r2.Metadata.CacheUtilization)
	}
}

func TestClearCaches_ResetsSharedState(t *testing.T) {
	e := newTestEngine()
	entries := []Entry{
		{Kind: KindLive, ID: "m", Severity: "warn",
			Series: seriesOf(1, 2, 3, 4, 5, 6, 7, 8)},
	}
	e.Compute(entries, History{}, nil, nil)
	e.ClearCaches()

	if s := e.Stats(); s.Calls != 0 || s.TotalElapsed != 0 {
		t.Errorf("stats after clear = %+v, want zeroes", s)
	}
	res := e.Compute(entries, History{}, nil, nil)
	if res.Metadata.CacheHits != 0 {
		t.Errorf("cache hits after clear = %d, want 0", res.Metadata.CacheHits)
	}
}

func TestStats_Accumulates(t *testing.T) {
	e := newTestEngine()
	e.Compute(nil, History{}, nil, nil)
	e.Compute(nil, History{}, nil, nil)
	if s := e.Stats(); s.Calls != 2 {
		t.Errorf("calls = %d, want 2", s.Calls)
	}
}

// --- validator-level degradation vs hard fallback ---

func TestCompute_NonArrayEntriesDegradesGracefully(t *testing.T) {
	entries, discarded := DecodeEntries([]byte(`"not an array"`), testLogger)
	if entries != nil || discarded != 0 {
		t.Fatalf("DecodeEntries on non-array = %v, %d; want nil, 0", entries, discarded)
	}

	e := newTestEngine()
	res := e.Compute(entries, History{}, nil, nil)

	// Validator-level recovery, not the hard degraded-50 fallback.
	if res.Metadata.Degraded {
		t.Error("non-array input must not trigger the degraded fallback")
	}
	if res.Score == degradedScore && res.Band == "unknown" {
		t.Error("non-array input produced the hard fallback result")
	}
	if res.Metadata.EntryCount != 0 {
		t.Errorf("entryCount = %d, want 0", res.Metadata.EntryCount)
	}
}

func TestDecodeEntries_FiltersMalformedElements(t *testing.T) {
	data := []byte(`[
		{"kind":"dtc","id":"P0301","severity":"crit"},
		42,
		{"kind":"live","id":"rpm","series":"nope"},
		{"kind":"gauge","id":"weird"}
	]`)
	entries, discarded := DecodeEntries(data, testLogger)
	if discarded != 2 {
		t.Errorf("decode discards = %d, want 2 (number and bad series)", discarded)
	}

	valid, dropped := filterEntries(entries, testLogger)
	if dropped != 1 {
		t.Errorf("filter discards = %d, want 1 (unknown kind)", dropped)
	}
	if len(valid) != 1 || valid[0].ID != "P0301" {
		t.Errorf("valid = %+v, want only the dtc entry", valid)
	}
}

func TestCompute_UnknownKindsRejectedNotCoerced(t *testing.T) {
	e := newTestEngine()
	res := e.Compute([]Entry{{Kind: "gauge", Severity: "crit"}}, History{}, nil, nil)
	if res.Metadata.DiscardedEntries != 1 || res.Metadata.EntryCount != 0 {
		t.Errorf("metadata = %+v, want the unknown kind discarded", res.Metadata)
	}
	if res.Score != 100 {
		t.Errorf("score = %d, want 100 — rejected entries must not penalize", res.Score)
	}
}

// --- band correctness via crafted scores ---

func TestCompute_Score90IsExcellent(t *testing.T) {
	e := newTestEngine()
	// One plain warn DTC: penalty 10 → score 90.
	res := e.Compute([]Entry{dtcEntry("P0420", "warn", "")}, History{}, nil, nil)
	if res.Score != 90 {
		t.Fatalf("score = %d, want 90", res.Score)
	}
	if res.Band != "excellent" {
		t.Errorf("band at 90 = %q, want excellent", res.Band)
	}
}

func TestCompute_Score59IsBelowWatch(t *testing.T) {
	e := newTestEngine()
	// Override the warn tier to land exactly on 59.
	res := e.Compute([]Entry{dtcEntry("P0420", "warn", "")}, History{}, nil,
		&Overrides{DTC: &DTCOverrides{Warn: f64(41), Cap: f64(50)}})
	if res.Score != 59 {
		t.Fatalf("score = %d, want 59", res.Score)
	}
	if res.Band != "action" {
		t.Errorf("band at 59 = %q, want action (watch or lower)", res.Band)
	}
}

// --- scenarios ---

func TestScenario_AllClean(t *testing.T) {
	e := newTestEngine()
	history := History{
		UptimeRatio:        1,
		SensorCoverage:     1,
		RecentSessionCount: 5,
		CleanSessionStreak: 4,
	}
	res := e.Compute(nil, history, nil, nil)

	if res.Score < 90 {
		t.Errorf("score = %d, want 90s band", res.Score)
	}
	if res.Band != "excellent" {
		t.Errorf("band = %q, want excellent", res.Band)
	}
	for cat, p := range res.Breakdown.Penalties {
		if p != 0 {
			t.Errorf("penalty %q = %.2f, want 0", cat, p)
		}
	}
	if got := res.Breakdown.Bonuses["recoveryBonus"]; !almostEqual(got, 6, 0.0001) {
		t.Errorf("recoveryBonus = %.2f, want 6", got)
	}
}

func TestScenario_CriticalDTCWithSustainedOverheat(t *testing.T) {
	e := newTestEngine()
	entries := []Entry{
		dtcEntry("P0217", "crit", "powertrain"),
		{Kind: KindLive, ID: "coolantTempC", Title: "coolant temperature",
			Severity: "crit", Value: 112, Unit: "°C",
			Series: seriesOf(111, 112, 112, 113, 112, 111, 112, 112)},
	}
	res := e.Compute(entries, History{}, nil, nil)

	if res.Band != "action" {
		t.Errorf("band = %q (score %d), want action", res.Band, res.Score)
	}

	var live *Contributor
	for idx := range res.Contributors {
		if res.Contributors[idx].Type == KindLive {
			live = &res.Contributors[idx]
		}
	}
	if live == nil || !live.Sustained {
		t.Errorf("live contributor should be flagged sustained: %+v", res.Contributors)
	}

	foundHigh := false
	for _, r := range res.Recommendations {
		if r.Priority == "high" {
			foundHigh = true
		}
	}
	if !foundHigh {
		t.Errorf("recommendations lack a high priority: %+v", res.Recommendations)
	}
}

func TestScenario_MalformedMaintenance(t *testing.T) {
	maint, decodeDiscards := DecodeMaintenance([]byte(`[null, {"label":"x"}, 42]`), testLogger)
	if decodeDiscards != 1 {
		t.Errorf("decode discards = %d, want 1 (the number)", decodeDiscards)
	}

	e := newTestEngine()
	res := e.Compute(nil, History{}, maint, nil)

	// null decodes to a zero item with no label; the validator drops it.
	if res.Metadata.DiscardedMaintenance != 1 {
		t.Errorf("discardedMaintenance = %d, want 1", res.Metadata.DiscardedMaintenance)
	}
	// Only the well-formed item contributes (severity unknown → small tier).
	want := DefaultConfig().Maintenance.Unknown
	if got := res.Breakdown.Penalties["maintenance"]; !almostEqual(got, want, 0.0001) {
		t.Errorf("maintenance penalty = %.2f, want %.2f", got, want)
	}
}

// --- degraded fallback ---

func TestDegradedResult_Shape(t *testing.T) {
	res := degradedResult("boom", 0)
	if res.Score != 50 || res.Confidence != 0 || res.Band != "unknown" {
		t.Errorf("degraded result = %+v", res)
	}
	if len(res.Contributors) != 0 {
		t.Errorf("degraded contributors = %d, want none", len(res.Contributors))
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].Priority != "high" {
		t.Errorf("degraded recommendations = %+v", res.Recommendations)
	}
	if !res.Metadata.Degraded || res.Metadata.Error != "boom" {
		t.Errorf("degraded metadata = %+v", res.Metadata)
	}
}

func TestCompute_PanicConvertedToDegradedResult(t *testing.T) {
	e := newTestEngine()
	// A nil now func makes the pipeline panic after the timer has been
	// read; Compute must absorb it.
	res := e.Compute(nil, History{}, nil, &Overrides{
		Bands: []Band{}, // legal, exercises override path
	})
	if res.Metadata.Degraded {
		t.Fatalf("benign input unexpectedly degraded: %+v", res.Metadata)
	}

	// A clock that fails exactly once mid-pipeline (the confidence pass)
	// but recovers for the deferred timing read.
	calls := 0
	e.now = func() time.Time {
		calls++
		if calls == 2 {
			panic("clock failure")
		}
		return time.Now()
	}
	res = e.Compute(nil, History{}, nil, nil)
	if !res.Metadata.Degraded || res.Score != 50 || res.Band != "unknown" {
		t.Errorf("panic was not converted to the degraded result: %+v", res)
	}
	if res.Metadata.Error == "" {
		t.Error("degraded metadata should carry the panic message")
	}
}

// --- result serialization contract ---

func TestResult_JSONFieldNames(t *testing.T) {
	e := newTestEngine()
	res := e.Compute([]Entry{dtcEntry("P0301", "crit", "")}, History{}, nil, nil)

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{
		"score", "confidence", "band", "contributors",
		"breakdown", "recommendations", "metadata",
	} {
		if _, ok := doc[field]; !ok {
			t.Errorf("result JSON missing contract field %q", field)
		}
	}
}
