package health

import "math"

// bonusOutcome carries the two additive score bonuses. Both are strictly
// non-negative; bonuses never turn into penalties.
type bonusOutcome struct {
	recovery     float64
	efficiency   float64
	contributors []Contributor
}

func (b bonusOutcome) total() float64 {
	return b.recovery + b.efficiency
}

// computeBonuses derives the recovery-streak and efficiency-trend bonuses
// from the sanitized history.
func computeBonuses(h History, cfg BonusConfig) bonusOutcome {
	var out bonusOutcome

	if h.CleanSessionStreak > 0 {
		out.recovery = math.Min(float64(h.CleanSessionStreak)*cfg.RecoveryRate, cfg.RecoveryCap)
		out.contributors = append(out.contributors, Contributor{
			Label:  "clean session streak",
			Type:   "bonus",
			Impact: out.recovery,
			Value:  float64(h.CleanSessionStreak),
		})
	}

	if h.EfficiencyTrend > cfg.EfficiencyThreshold {
		out.efficiency = cfg.EfficiencyBonus
		out.contributors = append(out.contributors, Contributor{
			Label:  "improving fuel efficiency",
			Type:   "bonus",
			Impact: out.efficiency,
			Value:  h.EfficiencyTrend,
		})
	}

	return out
}
