package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/snapcore/snapcore-health/internal/health"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func tick(n int) time.Time {
	return baseTime.Add(time.Duration(n) * time.Second)
}

func TestRecorder_BuildsAscendingSeries(t *testing.T) {
	r := NewRecorder(10)
	for i, v := range []float64{90, 92, 95} {
		r.Record(Reading{Metric: "coolantTempC", Value: v, Unit: "°C", At: tick(i)})
	}

	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Kind != health.KindLive || e.ID != "coolantTempC" || e.Unit != "°C" {
		t.Errorf("entry = %+v", e)
	}
	if e.Value != 95 {
		t.Errorf("current value = %.1f, want the latest sample 95", e.Value)
	}
	if len(e.Series) != 3 {
		t.Fatalf("series length = %d, want 3", len(e.Series))
	}
	for i := 1; i < len(e.Series); i++ {
		if e.Series[i].T < e.Series[i-1].T {
			t.Fatal("series is not time-ascending")
		}
	}
}

func TestRecorder_OutOfOrderReadingInserted(t *testing.T) {
	r := NewRecorder(10)
	r.Record(Reading{Metric: "rpm", Value: 1, At: tick(0)})
	r.Record(Reading{Metric: "rpm", Value: 3, At: tick(2)})
	r.Record(Reading{Metric: "rpm", Value: 2, At: tick(1)}) // late arrival

	series := r.Entries()[0].Series
	for i, want := range []float64{1, 2, 3} {
		if series[i].V != want {
			t.Errorf("series[%d] = %.1f, want %.1f", i, series[i].V, want)
		}
	}
}

func TestRecorder_BoundDropsOldest(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(Reading{Metric: "rpm", Value: float64(i), At: tick(i)})
	}
	series := r.Entries()[0].Series
	if len(series) != 3 {
		t.Fatalf("series length = %d, want bound 3", len(series))
	}
	if series[0].V != 2 {
		t.Errorf("oldest kept sample = %.1f, want 2", series[0].V)
	}
}

func TestRecorder_RulesTagSeverity(t *testing.T) {
	r := NewRecorder(10)
	warm, err := ParseRule("coolantTempC > 100", "warn")
	if err != nil {
		t.Fatal(err)
	}
	hot, err := ParseRule("coolantTempC > 110", "crit")
	if err != nil {
		t.Fatal(err)
	}
	r.SetRules([]Rule{warm, hot})

	r.Record(Reading{Metric: "coolantTempC", Value: 95, At: tick(0)})
	if sev := r.Entries()[0].Severity; sev != "ok" {
		t.Errorf("severity at 95 = %q, want ok", sev)
	}

	r.Record(Reading{Metric: "coolantTempC", Value: 104, At: tick(1)})
	if sev := r.Entries()[0].Severity; sev != "warn" {
		t.Errorf("severity at 104 = %q, want warn", sev)
	}

	r.Record(Reading{Metric: "coolantTempC", Value: 113, At: tick(2)})
	if sev := r.Entries()[0].Severity; sev != "crit" {
		t.Errorf("severity at 113 = %q, want crit", sev)
	}
}

func TestRecorder_EntriesSortedByMetric(t *testing.T) {
	r := NewRecorder(10)
	r.Record(Reading{Metric: "rpm", Value: 800, At: tick(0)})
	r.Record(Reading{Metric: "coolantTempC", Value: 90, At: tick(0)})

	entries := r.Entries()
	if entries[0].ID != "coolantTempC" || entries[1].ID != "rpm" {
		t.Errorf("entries not in deterministic order: %q, %q", entries[0].ID, entries[1].ID)
	}
}

// --- rules ---

func TestParseRule_RejectsMalformed(t *testing.T) {
	bad := []struct{ cond, sev string }{
		{"coolantTempC >", "warn"},
		{"coolantTempC ~ 100", "warn"},
		{"coolantTempC > hot", "warn"},
		{"coolantTempC > 100", "fatal"},
	}
	for _, tc := range bad {
		if _, err := ParseRule(tc.cond, tc.sev); err == nil {
			t.Errorf("ParseRule(%q, %q) accepted malformed input", tc.cond, tc.sev)
		}
	}
}

func TestEvalRules_Operators(t *testing.T) {
	tests := []struct {
		cond  string
		value float64
		fires bool
	}{
		{"m > 10", 11, true},
		{"m > 10", 10, false},
		{"m >= 10", 10, true},
		{"m < 5", 4, true},
		{"m <= 5", 5, true},
		{"m == 7", 7, true},
		{"m != 7", 8, true},
	}
	for _, tc := range tests {
		got := evalRules([]Rule{{Condition: tc.cond, Severity: "warn"}}, "m", tc.value)
		fired := got == "warn"
		if fired != tc.fires {
			t.Errorf("evalRules(%q, %.1f) fired=%v, want %v", tc.cond, tc.value, fired, tc.fires)
		}
	}
}

func TestEvalRules_WrongMetricNeverFires(t *testing.T) {
	got := evalRules([]Rule{{Condition: "other > 0", Severity: "crit"}}, "m", 100)
	if got != "ok" {
		t.Errorf("severity = %q, want ok", got)
	}
}

// --- exposition parsing ---

func TestParseExposition(t *testing.T) {
	text := `# HELP coolant_temp_c Engine coolant temperature.
# TYPE coolant_temp_c gauge
coolant_temp_c 93.5
# TYPE harsh_events_total counter
harsh_events_total{kind="braking"} 3
harsh_events_total{kind="cornering"} 2
`
	readings, err := ParseExposition(strings.NewReader(text), baseTime)
	if err != nil {
		t.Fatalf("ParseExposition: %v", err)
	}

	byMetric := map[string]Reading{}
	for _, r := range readings {
		byMetric[r.Metric] = r
	}

	if got := byMetric["coolant_temp_c"].Value; got != 93.5 {
		t.Errorf("coolant_temp_c = %.2f, want 93.5", got)
	}
	// Labeled series within one family are summed.
	if got := byMetric["harsh_events_total"].Value; got != 5 {
		t.Errorf("harsh_events_total = %.2f, want 5", got)
	}
	if at := byMetric["coolant_temp_c"].At; !at.Equal(baseTime) {
		t.Errorf("reading timestamp = %v, want %v", at, baseTime)
	}
}

func TestParseExposition_GarbageInput(t *testing.T) {
	if _, err := ParseExposition(strings.NewReader("{{{not metrics"), baseTime); err == nil {
		t.Error("garbage input should return an error")
	}
}
