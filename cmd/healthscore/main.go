package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/snapcore/snapcore-health/internal/config"
	"github.com/snapcore/snapcore-health/internal/efficiency"
	"github.com/snapcore/snapcore-health/internal/health"
	"github.com/snapcore/snapcore-health/internal/telemetry"
)

// snapshot is the on-disk vehicle snapshot format. Entries and
// maintenance stay raw so malformed elements degrade row by row
// instead of failing the whole file.
type snapshot struct {
	Entries     json.RawMessage `json:"entries"`
	History     health.History  `json:"history"`
	Maintenance json.RawMessage `json:"maintenance"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch", false, "keep running and rescore on config changes")
	pretty := flag.Bool("pretty", false, "indent the result JSON")
	flag.Parse()

	// Bootstrap logger until the configured one is built. Logs go to
	// stderr so stdout stays clean for the result JSON.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("healthscore starting",
		"config", *configPath,
		"snapshot", cfg.Input.Snapshot,
		"watch", *watch,
	)

	engine := health.NewEngine(logger)

	if err := scoreOnce(cfg, engine, logger, *pretty); err != nil {
		logger.Error("scoring failed", "err", err)
		os.Exit(1)
	}
	if !*watch {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var mu sync.Mutex
	go func() {
		err := config.Watch(ctx, *configPath, logger, func(updated *config.Config) {
			mu.Lock()
			defer mu.Unlock()
			if err := scoreOnce(updated, engine, logger, *pretty); err != nil {
				logger.Error("rescore failed", "err", err)
			}
		})
		if err != nil {
			logger.Error("config watcher stopped", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("healthscore shutting down")
}

// buildLogger constructs the slog handler described by the logging config.
func buildLogger(lc config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// scoreOnce assembles the inputs named by cfg, runs the engine, and
// writes the result JSON to stdout.
func scoreOnce(cfg *config.Config, engine *health.Engine, logger *slog.Logger, pretty bool) error {
	data, err := os.ReadFile(cfg.Input.Snapshot)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	entries, droppedEntries := health.DecodeEntries(snap.Entries, logger)
	maintenance, droppedMaint := health.DecodeMaintenance(snap.Maintenance, logger)
	if droppedEntries > 0 || droppedMaint > 0 {
		logger.Warn("snapshot rows discarded",
			"entries", droppedEntries, "maintenance", droppedMaint)
	}

	if cfg.Input.Metrics != "" {
		extra, err := metricsEntries(cfg, logger)
		if err != nil {
			logger.Warn("skipping metrics input", "path", cfg.Input.Metrics, "err", err)
		} else {
			entries = append(entries, extra...)
		}
	}

	history := snap.History
	if cfg.Input.Sessions != "" {
		trend, err := sessionsTrend(cfg, logger)
		if err != nil {
			logger.Warn("skipping sessions input", "path", cfg.Input.Sessions, "err", err)
		} else {
			history.EfficiencyTrend = trend
		}
	}

	result := engine.Compute(entries, history, maintenance, cfg.Scoring)
	logger.Info("score computed",
		"score", result.Score,
		"band", result.Band,
		"confidence", result.Confidence,
		"entries", result.Metadata.EntryCount,
	)

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

// metricsEntries folds a Prometheus text-format dump into live entries
// tagged by the configured severity rules.
func metricsEntries(cfg *config.Config, logger *slog.Logger) ([]health.Entry, error) {
	f, err := os.Open(cfg.Input.Metrics)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	readings, err := telemetry.ParseExposition(f, time.Now())
	if err != nil {
		return nil, err
	}

	rec := telemetry.NewRecorder(cfg.Telemetry.MaxSamples)
	rec.SetRules(cfg.Telemetry.ParsedRules())
	for metric, title := range cfg.Telemetry.Titles {
		rec.SetTitle(metric, title)
	}
	for _, r := range readings {
		rec.Record(r)
	}

	entries := rec.Entries()
	logger.Info("metrics folded into live entries",
		"path", cfg.Input.Metrics, "readings", len(readings), "entries", len(entries))
	return entries, nil
}

// sessionsTrend derives the history efficiency trend from a
// charging-session CSV export.
func sessionsTrend(cfg *config.Config, logger *slog.Logger) (float64, error) {
	f, err := os.Open(cfg.Input.Sessions)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	loaded, err := efficiency.LoadCSV(f, logger)
	if err != nil {
		return 0, err
	}
	analysis, err := efficiency.Analyze(loaded.Sessions)
	if err != nil {
		return 0, err
	}

	trend := analysis.EfficiencyTrend()
	logger.Info("charging efficiency analyzed",
		"sessions", len(loaded.Sessions),
		"quality", loaded.Quality,
		"rating", analysis.Overall.Rating,
		"cost_per_kwh", analysis.Overall.CostPerKWh,
		"potential_annual_savings", analysis.SavingsPotential,
		"trend", trend,
	)
	return trend, nil
}
