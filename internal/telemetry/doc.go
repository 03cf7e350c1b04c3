// Package telemetry turns raw sensor readings into live health entries.
//
// Recorder accumulates timestamped readings into bounded, time-ascending
// series per metric. ParseExposition ingests the Prometheus text format
// that Snapcore gateways export their sensor snapshots in. Severity
// threshold rules ("coolantTempC > 105" → crit) tag the emitted entries
// when the upstream feed carries no severity of its own.
package telemetry
