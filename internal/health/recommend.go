package health

import (
	"fmt"
	"math"
	"sort"
)

// recommend ranks the non-bonus contributors by absolute penalty
// magnitude, takes the top K, and emits one advisory per contributor with
// type-specific phrasing. Priority escalates to high when the source
// severity is crit.
func recommend(contributors []Contributor, topK int) []Recommendation {
	penalties := make([]Contributor, 0, len(contributors))
	for _, c := range contributors {
		if c.Type == "bonus" {
			continue
		}
		penalties = append(penalties, c)
	}
	sort.SliceStable(penalties, func(i, j int) bool {
		return math.Abs(penalties[i].Impact) > math.Abs(penalties[j].Impact)
	})
	if topK > 0 && len(penalties) > topK {
		penalties = penalties[:topK]
	}

	recs := make([]Recommendation, 0, len(penalties))
	for _, c := range penalties {
		recs = append(recs, recommendationFor(c))
	}
	return recs
}

func recommendationFor(c Contributor) Recommendation {
	priority := "medium"
	if c.Severity == SeverityCrit {
		priority = "high"
	}

	switch c.Type {
	case KindDTC:
		return Recommendation{
			Priority:  priority,
			Action:    fmt.Sprintf("diagnose and repair %s", c.Label),
			Rationale: fmt.Sprintf("stored trouble code with %s severity", c.Severity),
		}
	case KindLive:
		rationale := fmt.Sprintf("live reading outside normal range (%s)", c.Severity)
		if c.Sustained {
			rationale = "reading has held an abnormal level rather than spiking"
		} else if c.Volatile {
			rationale = "reading is fluctuating erratically"
		}
		return Recommendation{
			Priority:  priority,
			Action:    fmt.Sprintf("monitor and stabilize %s", c.Label),
			Rationale: rationale,
		}
	case "maintenance":
		return Recommendation{
			Priority:  priority,
			Action:    fmt.Sprintf("schedule maintenance: %s", c.Label),
			Rationale: "overdue service increases failure risk",
		}
	case "driving":
		return Recommendation{
			Priority:  priority,
			Action:    "review driving patterns",
			Rationale: c.Label,
		}
	default:
		return Recommendation{
			Priority:  priority,
			Action:    fmt.Sprintf("investigate %s", c.Label),
			Rationale: "unrecognized contributor type",
		}
	}
}
