package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
logging:
  level: debug
  format: json
input:
  snapshot: "testdata/snapshot.json"
  metrics: "testdata/metrics.prom"
  sessions: "testdata/charges.csv"
telemetry:
  max_samples: 120
  rules:
    - condition: "coolant_temp_c > 110"
      severity: crit
    - condition: "battery_voltage < 11.8"
      severity: warn
  titles:
    coolant_temp_c: "Coolant Temperature"
scoring:
  dtc:
    crit: 30
`
	cfg := loadFromString(t, yaml)

	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level: got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging.format: got %q", cfg.Logging.Format)
	}
	if cfg.Input.Snapshot != "testdata/snapshot.json" {
		t.Errorf("input.snapshot: got %q", cfg.Input.Snapshot)
	}
	if cfg.Telemetry.MaxSamples != 120 {
		t.Errorf("telemetry.max_samples: got %d", cfg.Telemetry.MaxSamples)
	}
	if got := len(cfg.Telemetry.ParsedRules()); got != 2 {
		t.Errorf("parsed rules: got %d, want 2", got)
	}
	if cfg.Telemetry.Titles["coolant_temp_c"] != "Coolant Temperature" {
		t.Errorf("titles: got %q", cfg.Telemetry.Titles["coolant_temp_c"])
	}
	if cfg.Scoring == nil || cfg.Scoring.DTC == nil || cfg.Scoring.DTC.Crit == nil {
		t.Fatal("scoring overrides not decoded")
	}
	if *cfg.Scoring.DTC.Crit != 30 {
		t.Errorf("scoring.dtc.crit: got %g", *cfg.Scoring.DTC.Crit)
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
input:
  snapshot: "snapshot.json"
`
	cfg := loadFromString(t, yaml)

	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("default logging.level: got %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("default logging.format: got %q, want %q", cfg.Logging.Format, DefaultLogFormat)
	}
	if cfg.Telemetry.MaxSamples != DefaultMaxSamples {
		t.Errorf("default telemetry.max_samples: got %d, want %d", cfg.Telemetry.MaxSamples, DefaultMaxSamples)
	}
	if cfg.Scoring != nil {
		t.Errorf("scoring: got %+v, want nil", cfg.Scoring)
	}
}

func TestLoad_MissingSnapshot(t *testing.T) {
	_, err := loadStringErr(t, "logging:\n  level: info\n")
	if err == nil {
		t.Fatal("expected error for missing input.snapshot, got nil")
	}
}

func TestLoad_UnknownLogLevel(t *testing.T) {
	yaml := `
logging:
  level: loud
input:
  snapshot: "snapshot.json"
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for unknown log level, got nil")
	}
}

func TestLoad_MalformedRule(t *testing.T) {
	yaml := `
input:
  snapshot: "snapshot.json"
telemetry:
  rules:
    - condition: "coolant_temp_c >"
      severity: crit
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for malformed rule condition, got nil")
	}
}

func TestLoad_BadRuleSeverity(t *testing.T) {
	yaml := `
input:
  snapshot: "snapshot.json"
telemetry:
  rules:
    - condition: "rpm > 6000"
      severity: fatal
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for unknown rule severity, got nil")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		l := LoggingConfig{Level: tc.level}
		if got := l.SlogLevel(); got != tc.want {
			t.Errorf("SlogLevel(%q): got %v, want %v", tc.level, got, tc.want)
		}
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
