package health

import "time"

// Config is the fully-resolved scoring configuration. Callers never build
// one directly: DefaultConfig returns the baseline and Overrides are
// merged over it per Compute call, so the defaults are never mutated.
type Config struct {
	DTC         DTCConfig
	Live        LiveConfig
	Maintenance MaintenanceConfig
	Driving     DrivingConfig
	Bonuses     BonusConfig
	Confidence  ConfidenceConfig
	Volatility  VolatilityConfig

	// Bands must be kept in descending Min order; classification walks
	// them top-down and selects the first whose Min the score meets.
	Bands []Band

	// TopContributors is how many contributors the result surfaces.
	TopContributors int

	// TopRecommendations is how many advisories are generated.
	TopRecommendations int
}

// DTCConfig controls penalties for stored trouble codes.
type DTCConfig struct {
	// Base penalty per normalized severity.
	Ok      float64
	Warn    float64
	Crit    float64
	Unknown float64

	// CategoryWeights scale the base penalty per entry category.
	// Unlisted categories weigh 1.0.
	CategoryWeights map[string]float64

	// Cap bounds the total DTC-attributable penalty.
	Cap float64
}

// LiveConfig controls penalties for live sensor metrics.
type LiveConfig struct {
	Warn    float64
	Crit    float64
	Unknown float64

	// VolatilityThreshold is the volatility score (0–10) above which the
	// fixed VolatilityBonus penalty is added and the contributor flagged.
	VolatilityThreshold float64
	VolatilityBonus     float64

	// Sustained-issue detection: over the last SustainedWindow samples
	// (at least SustainedMinSamples required), a relative mean absolute
	// deviation below SustainedTightness marks the metric as holding a
	// stable out-of-range level, and the penalty is multiplied by
	// SustainedMultiplier.
	SustainedWindow     int
	SustainedMinSamples int
	SustainedTightness  float64
	SustainedMultiplier float64

	Cap float64
}

// MaintenanceConfig controls penalties for outstanding service items.
type MaintenanceConfig struct {
	Ok      float64
	Warn    float64
	Crit    float64
	Unknown float64

	// OverdueSteps are ascending day thresholds; each one passed adds a
	// +1/+2/+3 surcharge respectively.
	OverdueSteps [3]int

	// Cost amplification: items at or above CostHighThreshold multiply
	// the penalty by CostHighMultiplier, items at or above
	// CostMediumThreshold by CostMediumMultiplier. Cheaper items are
	// unaffected.
	CostHighThreshold    float64
	CostHighMultiplier   float64
	CostMediumThreshold  float64
	CostMediumMultiplier float64

	Cap float64
}

// DrivingConfig controls penalties derived from behavioral history.
type DrivingConfig struct {
	// HarshEventThreshold is the harsh-event count above which a penalty
	// accrues, HarshEventRate per excess event, capped at HarshEventCap.
	HarshEventThreshold int
	HarshEventRate      float64
	HarshEventCap       float64

	// TrendThreshold is the (negative) efficiency trend below which a
	// penalty proportional to the trend magnitude accrues, scaled by
	// TrendRate and capped at TrendCap.
	TrendThreshold float64
	TrendRate      float64
	TrendCap       float64

	Cap float64
}

// BonusConfig controls the additive score bonuses.
type BonusConfig struct {
	RecoveryRate float64 // per clean-session streak unit
	RecoveryCap  float64

	// EfficiencyThreshold is the trend value above which the flat
	// EfficiencyBonus is granted.
	EfficiencyThreshold float64
	EfficiencyBonus     float64
}

// ConfidenceConfig holds the sub-weights of the confidence blend.
// The weights are intended to sum to 1 but this is not enforced.
type ConfidenceConfig struct {
	UptimeWeight      float64
	CoverageWeight    float64
	SessionWeight     float64
	DTCHistoryWeight  float64
	MaintenanceWeight float64
	RecencyWeight     float64

	SessionTarget    int // recent sessions for full session credit
	DTCHistoryTarget int // days of DTC history for full history credit
	MaxEntryAgeDays  float64
}

// VolatilityConfig holds sampling and memoization knobs for the
// volatility analyzer.
type VolatilityConfig struct {
	MinSeriesLength int
	SampleSize      int

	// CoerceInvalid keeps non-finite samples as 0 instead of dropping
	// them, preserving index alignment. Coercion is logged at warn.
	CoerceInvalid bool

	CacheEnabled bool
	CacheTTL     time.Duration
	CacheMaxSize int
}

// Band is one named severity tier of the final score.
type Band struct {
	Name     string  `yaml:"name" json:"name"`
	Min      float64 `yaml:"min" json:"min"`
	Color    string  `yaml:"color" json:"color"`
	Priority int     `yaml:"priority" json:"priority"`
}

// DefaultConfig returns a fresh copy of the default scoring configuration.
// Returning a new value per call is what keeps the defaults immutable.
func DefaultConfig() Config {
	return Config{
		DTC: DTCConfig{
			Ok:      0,
			Warn:    10,
			Crit:    25,
			Unknown: 4,
			CategoryWeights: map[string]float64{
				"safety":     1.5,
				"powertrain": 1.25,
				"emissions":  1.1,
				"comfort":    0.8,
			},
			Cap: 40,
		},
		Live: LiveConfig{
			Warn:                6,
			Crit:                14,
			Unknown:             3,
			VolatilityThreshold: 4,
			VolatilityBonus:     4,
			SustainedWindow:     8,
			SustainedMinSamples: 6,
			SustainedTightness:  0.05,
			SustainedMultiplier: 1.5,
			Cap:                 30,
		},
		Maintenance: MaintenanceConfig{
			Ok:                   0,
			Warn:                 4,
			Crit:                 10,
			Unknown:              2,
			OverdueSteps:         [3]int{30, 90, 180},
			CostHighThreshold:    1000,
			CostHighMultiplier:   1.5,
			CostMediumThreshold:  300,
			CostMediumMultiplier: 1.2,
			Cap:                  20,
		},
		Driving: DrivingConfig{
			HarshEventThreshold: 5,
			HarshEventRate:      0.5,
			HarshEventCap:       5,
			TrendThreshold:      -0.2,
			TrendRate:           10,
			TrendCap:            3,
			Cap:                 8,
		},
		Bonuses: BonusConfig{
			RecoveryRate:        1.5,
			RecoveryCap:         6,
			EfficiencyThreshold: 0.1,
			EfficiencyBonus:     2,
		},
		Confidence: ConfidenceConfig{
			UptimeWeight:      0.25,
			CoverageWeight:    0.25,
			SessionWeight:     0.15,
			DTCHistoryWeight:  0.15,
			MaintenanceWeight: 0.10,
			RecencyWeight:     0.10,
			SessionTarget:     10,
			DTCHistoryTarget:  90,
			MaxEntryAgeDays:   30,
		},
		Volatility: VolatilityConfig{
			MinSeriesLength: 5,
			SampleSize:      20,
			CoerceInvalid:   true,
			CacheEnabled:    true,
			CacheTTL:        60 * time.Second,
			CacheMaxSize:    100,
		},
		Bands: []Band{
			{Name: "excellent", Min: 90, Color: "green", Priority: 0},
			{Name: "good", Min: 75, Color: "lime", Priority: 1},
			{Name: "watch", Min: 60, Color: "amber", Priority: 2},
			{Name: "action", Min: 0, Color: "red", Priority: 3},
		},
		TopContributors:    4,
		TopRecommendations: 3,
	}
}
