package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/snapcore/snapcore-health/internal/health"
	"github.com/snapcore/snapcore-health/internal/telemetry"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultMaxSamples = 60
)

// Config is the top-level configuration for the scoring CLI.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Logging   LoggingConfig     `yaml:"logging"`
	Input     InputConfig       `yaml:"input"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`
	Scoring   *health.Overrides `yaml:"scoring"`
}

// LoggingConfig controls log verbosity and output encoding.
type LoggingConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: text | json.
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name to its slog value.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InputConfig names the data files the CLI scores.
type InputConfig struct {
	// Snapshot is the vehicle snapshot JSON file holding diagnostic
	// entries, vehicle history and maintenance items.
	Snapshot string `yaml:"snapshot"`

	// Metrics is an optional Prometheus text-format dump whose samples
	// are folded into the live entries.
	Metrics string `yaml:"metrics"`

	// Sessions is an optional charging-session CSV export used for the
	// efficiency analysis and the history trend value.
	Sessions string `yaml:"sessions"`
}

// TelemetryConfig tunes how recorded metric samples become live entries.
type TelemetryConfig struct {
	// MaxSamples bounds the per-metric series length.
	MaxSamples int `yaml:"max_samples"`

	// Rules assign severities to metrics via threshold expressions.
	Rules []RuleConfig `yaml:"rules"`

	// Titles maps metric names to display titles.
	Titles map[string]string `yaml:"titles"`
}

// RuleConfig defines one threshold-based severity rule.
type RuleConfig struct {
	// Condition is an expression like "coolant_temp_c > 110".
	Condition string `yaml:"condition"`

	// Severity is one of: warn | crit.
	Severity string `yaml:"severity"`
}

// ParsedRules converts the configured rule list into telemetry rules.
// Load has already validated them, so parse errors are skipped.
func (t TelemetryConfig) ParsedRules() []telemetry.Rule {
	out := make([]telemetry.Rule, 0, len(t.Rules))
	for _, rc := range t.Rules {
		r, err := telemetry.ParseRule(rc.Condition, rc.Severity)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			MaxSamples: DefaultMaxSamples,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", cfg.Logging.Format)
	}
	if cfg.Input.Snapshot == "" {
		return fmt.Errorf("input.snapshot is required")
	}
	if cfg.Telemetry.MaxSamples <= 0 {
		return fmt.Errorf("telemetry.max_samples must be positive")
	}
	for i, rc := range cfg.Telemetry.Rules {
		if _, err := telemetry.ParseRule(rc.Condition, rc.Severity); err != nil {
			return fmt.Errorf("telemetry.rules[%d]: %w", i, err)
		}
	}
	return nil
}
