// Package efficiency analyzes charging-session history: cost efficiency
// overall and per charger type or location, behavioral patterns, and the
// long-run trend value consumed by the health engine.
package efficiency
