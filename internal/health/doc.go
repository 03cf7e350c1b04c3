// Package health implements the vehicle health scoring engine.
//
// Engine.Compute ingests diagnostic trouble codes, live sensor series,
// maintenance records, and driving history, and derives a 0–100 health
// score with a confidence level, ranked contributors, a severity band,
// and prioritized recommendations.
//
// The pipeline is pure and synchronous: validation filters and repairs
// the input, four independent calculators accumulate capped penalties,
// two bonus calculators add credits, and the final score is
// clamp(100 − penalties + bonuses, 0, 100). The only state carried
// across calls is the volatility memoization cache and a performance
// counter, both owned by the Engine instance and reset via ClearCaches.
//
// Compute never fails: malformed input degrades through the validator,
// numeric edge cases fall back to documented defaults, and an unexpected
// panic is converted into a fixed degraded result at the Compute
// boundary.
package health
