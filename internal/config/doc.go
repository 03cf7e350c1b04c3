// Package config loads and validates the YAML configuration for the
// scoring CLI, including live-reload support via filesystem watching.
package config
