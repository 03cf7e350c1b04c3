package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule tags a metric with a severity when its current value satisfies a
// threshold condition.
type Rule struct {
	// Condition is a "metric operator value" expression, e.g.
	// "coolantTempC > 105" or "oilPressureKPa <= 120".
	Condition string `yaml:"condition" json:"condition"`

	// Severity is the tag applied when the condition fires: warn | crit.
	Severity string `yaml:"severity" json:"severity"`
}

// ParseRule validates a condition expression up front so config errors
// surface at load time rather than per evaluation.
func ParseRule(condition, severity string) (Rule, error) {
	metric, op, rhs, err := splitCondition(condition)
	if err != nil {
		return Rule{}, err
	}
	if metric == "" {
		return Rule{}, fmt.Errorf("telemetry: rule %q: empty metric", condition)
	}
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return Rule{}, fmt.Errorf("telemetry: rule %q: unknown operator %q", condition, op)
	}
	if _, err := strconv.ParseFloat(rhs, 64); err != nil {
		return Rule{}, fmt.Errorf("telemetry: rule %q: threshold %q is not numeric", condition, rhs)
	}
	switch severity {
	case "warn", "crit":
	default:
		return Rule{}, fmt.Errorf("telemetry: rule %q: severity must be warn or crit, got %q", condition, severity)
	}
	return Rule{Condition: condition, Severity: severity}, nil
}

// evalRules returns the severity of the highest-ranking rule that fires
// for the metric's current value. With no firing rule the metric reads
// "ok". Unparsable conditions never fire.
func evalRules(rules []Rule, metric string, value float64) string {
	severity := "ok"
	for _, r := range rules {
		m, op, rhs, err := splitCondition(r.Condition)
		if err != nil || m != metric {
			continue
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			continue
		}
		if !compareFloat(value, op, threshold) {
			continue
		}
		if r.Severity == "crit" {
			return "crit" // nothing outranks crit
		}
		severity = r.Severity
	}
	return severity
}

// splitCondition breaks "metric op value" into its three fields.
func splitCondition(cond string) (metric, op, rhs string, err error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("telemetry: condition %q: want \"metric op value\"", cond)
	}
	return parts[0], parts[1], parts[2], nil
}

func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	}
	return false
}
