package health

import "strings"

// Canonical severity tags.
const (
	SeverityOk      = "ok"
	SeverityWarn    = "warn"
	SeverityCrit    = "crit"
	SeverityUnknown = "unknown"
)

// normalizeSeverity maps an arbitrary severity tag onto the canonical set.
// Anything outside {ok, warn, crit} becomes "unknown". Total function, no
// side effects.
func normalizeSeverity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SeverityOk:
		return SeverityOk
	case SeverityWarn:
		return SeverityWarn
	case SeverityCrit:
		return SeverityCrit
	default:
		return SeverityUnknown
	}
}
