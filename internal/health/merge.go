package health

import "time"

// Overrides is a partial scoring configuration supplied by the caller.
// Every field is optional: nil means "keep the default". Each nested
// section has its own merge function so shape errors surface at compile
// time instead of inside a generic recursive object merge.
//
// Slices (Bands) replace the default wholesale; the CategoryWeights map
// is merged per key with the override winning.
type Overrides struct {
	DTC         *DTCOverrides         `yaml:"dtc" json:"dtc,omitempty"`
	Live        *LiveOverrides        `yaml:"live" json:"live,omitempty"`
	Maintenance *MaintenanceOverrides `yaml:"maintenance" json:"maintenance,omitempty"`
	Driving     *DrivingOverrides     `yaml:"driving" json:"driving,omitempty"`
	Bonuses     *BonusOverrides       `yaml:"bonuses" json:"bonuses,omitempty"`
	Confidence  *ConfidenceOverrides  `yaml:"confidence" json:"confidence,omitempty"`
	Volatility  *VolatilityOverrides  `yaml:"volatility" json:"volatility,omitempty"`

	Bands []Band `yaml:"bands" json:"bands,omitempty"`

	TopContributors    *int `yaml:"top_contributors" json:"topContributors,omitempty"`
	TopRecommendations *int `yaml:"top_recommendations" json:"topRecommendations,omitempty"`
}

// DTCOverrides overrides DTCConfig fields.
type DTCOverrides struct {
	Ok              *float64           `yaml:"ok" json:"ok,omitempty"`
	Warn            *float64           `yaml:"warn" json:"warn,omitempty"`
	Crit            *float64           `yaml:"crit" json:"crit,omitempty"`
	Unknown         *float64           `yaml:"unknown" json:"unknown,omitempty"`
	CategoryWeights map[string]float64 `yaml:"category_weights" json:"categoryWeights,omitempty"`
	Cap             *float64           `yaml:"cap" json:"cap,omitempty"`
}

// LiveOverrides overrides LiveConfig fields.
type LiveOverrides struct {
	Warn                *float64 `yaml:"warn" json:"warn,omitempty"`
	Crit                *float64 `yaml:"crit" json:"crit,omitempty"`
	Unknown             *float64 `yaml:"unknown" json:"unknown,omitempty"`
	VolatilityThreshold *float64 `yaml:"volatility_threshold" json:"volatilityThreshold,omitempty"`
	VolatilityBonus     *float64 `yaml:"volatility_bonus" json:"volatilityBonus,omitempty"`
	SustainedWindow     *int     `yaml:"sustained_window" json:"sustainedWindow,omitempty"`
	SustainedMinSamples *int     `yaml:"sustained_min_samples" json:"sustainedMinSamples,omitempty"`
	SustainedTightness  *float64 `yaml:"sustained_tightness" json:"sustainedTightness,omitempty"`
	SustainedMultiplier *float64 `yaml:"sustained_multiplier" json:"sustainedMultiplier,omitempty"`
	Cap                 *float64 `yaml:"cap" json:"cap,omitempty"`
}

// MaintenanceOverrides overrides MaintenanceConfig fields.
type MaintenanceOverrides struct {
	Ok                   *float64 `yaml:"ok" json:"ok,omitempty"`
	Warn                 *float64 `yaml:"warn" json:"warn,omitempty"`
	Crit                 *float64 `yaml:"crit" json:"crit,omitempty"`
	Unknown              *float64 `yaml:"unknown" json:"unknown,omitempty"`
	OverdueSteps         *[3]int  `yaml:"overdue_steps" json:"overdueSteps,omitempty"`
	CostHighThreshold    *float64 `yaml:"cost_high_threshold" json:"costHighThreshold,omitempty"`
	CostHighMultiplier   *float64 `yaml:"cost_high_multiplier" json:"costHighMultiplier,omitempty"`
	CostMediumThreshold  *float64 `yaml:"cost_medium_threshold" json:"costMediumThreshold,omitempty"`
	CostMediumMultiplier *float64 `yaml:"cost_medium_multiplier" json:"costMediumMultiplier,omitempty"`
	Cap                  *float64 `yaml:"cap" json:"cap,omitempty"`
}

// DrivingOverrides overrides DrivingConfig fields.
type DrivingOverrides struct {
	HarshEventThreshold *int     `yaml:"harsh_event_threshold" json:"harshEventThreshold,omitempty"`
	HarshEventRate      *float64 `yaml:"harsh_event_rate" json:"harshEventRate,omitempty"`
	HarshEventCap       *float64 `yaml:"harsh_event_cap" json:"harshEventCap,omitempty"`
	TrendThreshold      *float64 `yaml:"trend_threshold" json:"trendThreshold,omitempty"`
	TrendRate           *float64 `yaml:"trend_rate" json:"trendRate,omitempty"`
	TrendCap            *float64 `yaml:"trend_cap" json:"trendCap,omitempty"`
	Cap                 *float64 `yaml:"cap" json:"cap,omitempty"`
}

// BonusOverrides overrides BonusConfig fields.
type BonusOverrides struct {
	RecoveryRate        *float64 `yaml:"recovery_rate" json:"recoveryRate,omitempty"`
	RecoveryCap         *float64 `yaml:"recovery_cap" json:"recoveryCap,omitempty"`
	EfficiencyThreshold *float64 `yaml:"efficiency_threshold" json:"efficiencyThreshold,omitempty"`
	EfficiencyBonus     *float64 `yaml:"efficiency_bonus" json:"efficiencyBonus,omitempty"`
}

// ConfidenceOverrides overrides ConfidenceConfig fields.
type ConfidenceOverrides struct {
	UptimeWeight      *float64 `yaml:"uptime_weight" json:"uptimeWeight,omitempty"`
	CoverageWeight    *float64 `yaml:"coverage_weight" json:"coverageWeight,omitempty"`
	SessionWeight     *float64 `yaml:"session_weight" json:"sessionWeight,omitempty"`
	DTCHistoryWeight  *float64 `yaml:"dtc_history_weight" json:"dtcHistoryWeight,omitempty"`
	MaintenanceWeight *float64 `yaml:"maintenance_weight" json:"maintenanceWeight,omitempty"`
	RecencyWeight     *float64 `yaml:"recency_weight" json:"recencyWeight,omitempty"`
	SessionTarget     *int     `yaml:"session_target" json:"sessionTarget,omitempty"`
	DTCHistoryTarget  *int     `yaml:"dtc_history_target" json:"dtcHistoryTarget,omitempty"`
	MaxEntryAgeDays   *float64 `yaml:"max_entry_age_days" json:"maxEntryAgeDays,omitempty"`
}

// VolatilityOverrides overrides VolatilityConfig fields.
type VolatilityOverrides struct {
	MinSeriesLength *int           `yaml:"min_series_length" json:"minSeriesLength,omitempty"`
	SampleSize      *int           `yaml:"sample_size" json:"sampleSize,omitempty"`
	CoerceInvalid   *bool          `yaml:"coerce_invalid" json:"coerceInvalid,omitempty"`
	CacheEnabled    *bool          `yaml:"cache_enabled" json:"cacheEnabled,omitempty"`
	CacheTTL        *time.Duration `yaml:"cache_ttl" json:"cacheTTL,omitempty"`
	CacheMaxSize    *int           `yaml:"cache_max_size" json:"cacheMaxSize,omitempty"`
}

// mergedConfig returns the defaults with o applied on top. o may be nil.
func mergedConfig(o *Overrides) Config {
	cfg := DefaultConfig()
	if o == nil {
		return cfg
	}
	mergeDTC(&cfg.DTC, o.DTC)
	mergeLive(&cfg.Live, o.Live)
	mergeMaintenance(&cfg.Maintenance, o.Maintenance)
	mergeDriving(&cfg.Driving, o.Driving)
	mergeBonuses(&cfg.Bonuses, o.Bonuses)
	mergeConfidence(&cfg.Confidence, o.Confidence)
	mergeVolatility(&cfg.Volatility, o.Volatility)
	if o.Bands != nil {
		cfg.Bands = append([]Band(nil), o.Bands...)
	}
	setInt(&cfg.TopContributors, o.TopContributors)
	setInt(&cfg.TopRecommendations, o.TopRecommendations)
	return cfg
}

func mergeDTC(dst *DTCConfig, o *DTCOverrides) {
	if o == nil {
		return
	}
	setFloat(&dst.Ok, o.Ok)
	setFloat(&dst.Warn, o.Warn)
	setFloat(&dst.Crit, o.Crit)
	setFloat(&dst.Unknown, o.Unknown)
	setFloat(&dst.Cap, o.Cap)
	if len(o.CategoryWeights) > 0 {
		merged := make(map[string]float64, len(dst.CategoryWeights)+len(o.CategoryWeights))
		for k, v := range dst.CategoryWeights {
			merged[k] = v
		}
		for k, v := range o.CategoryWeights {
			merged[k] = v
		}
		dst.CategoryWeights = merged
	}
}

func mergeLive(dst *LiveConfig, o *LiveOverrides) {
	if o == nil {
		return
	}
	setFloat(&dst.Warn, o.Warn)
	setFloat(&dst.Crit, o.Crit)
	setFloat(&dst.Unknown, o.Unknown)
	setFloat(&dst.VolatilityThreshold, o.VolatilityThreshold)
	setFloat(&dst.VolatilityBonus, o.VolatilityBonus)
	setInt(&dst.SustainedWindow, o.SustainedWindow)
	setInt(&dst.SustainedMinSamples, o.SustainedMinSamples)
	setFloat(&dst.SustainedTightness, o.SustainedTightness)
	setFloat(&dst.SustainedMultiplier, o.SustainedMultiplier)
	setFloat(&dst.Cap, o.Cap)
}

func mergeMaintenance(dst *MaintenanceConfig, o *MaintenanceOverrides) {
	if o == nil {
		return
	}
	setFloat(&dst.Ok, o.Ok)
	setFloat(&dst.Warn, o.Warn)
	setFloat(&dst.Crit, o.Crit)
	setFloat(&dst.Unknown, o.Unknown)
	if o.OverdueSteps != nil {
		dst.OverdueSteps = *o.OverdueSteps
	}
	setFloat(&dst.CostHighThreshold, o.CostHighThreshold)
	setFloat(&dst.CostHighMultiplier, o.CostHighMultiplier)
	setFloat(&dst.CostMediumThreshold, o.CostMediumThreshold)
	setFloat(&dst.CostMediumMultiplier, o.CostMediumMultiplier)
	setFloat(&dst.Cap, o.Cap)
}

func mergeDriving(dst *DrivingConfig, o *DrivingOverrides) {
	if o == nil {
		return
	}
	setInt(&dst.HarshEventThreshold, o.HarshEventThreshold)
	setFloat(&dst.HarshEventRate, o.HarshEventRate)
	setFloat(&dst.HarshEventCap, o.HarshEventCap)
	setFloat(&dst.TrendThreshold, o.TrendThreshold)
	setFloat(&dst.TrendRate, o.TrendRate)
	setFloat(&dst.TrendCap, o.TrendCap)
	setFloat(&dst.Cap, o.Cap)
}

func mergeBonuses(dst *BonusConfig, o *BonusOverrides) {
	if o == nil {
		return
	}
	setFloat(&dst.RecoveryRate, o.RecoveryRate)
	setFloat(&dst.RecoveryCap, o.RecoveryCap)
	setFloat(&dst.EfficiencyThreshold, o.EfficiencyThreshold)
	setFloat(&dst.EfficiencyBonus, o.EfficiencyBonus)
}

func mergeConfidence(dst *ConfidenceConfig, o *ConfidenceOverrides) {
	if o == nil {
		return
	}
	setFloat(&dst.UptimeWeight, o.UptimeWeight)
	setFloat(&dst.CoverageWeight, o.CoverageWeight)
	setFloat(&dst.SessionWeight, o.SessionWeight)
	setFloat(&dst.DTCHistoryWeight, o.DTCHistoryWeight)
	setFloat(&dst.MaintenanceWeight, o.MaintenanceWeight)
	setFloat(&dst.RecencyWeight, o.RecencyWeight)
	setInt(&dst.SessionTarget, o.SessionTarget)
	setInt(&dst.DTCHistoryTarget, o.DTCHistoryTarget)
	setFloat(&dst.MaxEntryAgeDays, o.MaxEntryAgeDays)
}

func mergeVolatility(dst *VolatilityConfig, o *VolatilityOverrides) {
	if o == nil {
		return
	}
	setInt(&dst.MinSeriesLength, o.MinSeriesLength)
	setInt(&dst.SampleSize, o.SampleSize)
	setBool(&dst.CoerceInvalid, o.CoerceInvalid)
	setBool(&dst.CacheEnabled, o.CacheEnabled)
	if o.CacheTTL != nil {
		dst.CacheTTL = *o.CacheTTL
	}
	setInt(&dst.CacheMaxSize, o.CacheMaxSize)
}

func setFloat(dst *float64, o *float64) {
	if o != nil {
		*dst = *o
	}
}

func setInt(dst *int, o *int) {
	if o != nil {
		*dst = *o
	}
}

func setBool(dst *bool, o *bool) {
	if o != nil {
		*dst = *o
	}
}
