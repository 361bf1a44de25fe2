// Package config decodes the JSON configuration blob the host editor
// UI hands to osmtopo at startup, mirroring pkg/batch.Config's
// "JSON from TypeScript, not files or flags" convention — osmtopo has
// no other source of configuration.
package config

import (
	"encoding/json"
	"fmt"
)

// Config is the full set of host-supplied settings for one osmtopo
// session.
type Config struct {
	// Generator fills osmChange/@generator (spec.md §6). Defaults to
	// "osmtopo" when left empty.
	Generator string `json:"generator"`

	// LogLevel is one of "debug", "info", "warn", "error"; defaults to
	// "info" when empty or unrecognized.
	LogLevel string `json:"logLevel"`

	// HistoryDSN is the internal/history.Store DSN; ":memory:" when
	// the host wants no cross-session persistence.
	HistoryDSN string `json:"historyDSN"`

	// SpatialDSN is the internal/spatial.Store DSN for the marker
	// cache; ":memory:" by default.
	SpatialDSN string `json:"spatialDSN"`

	// IntersectionRadiusMeters bounds internal/intersection.Build's
	// reachable-way BFS (spec.md §4.4). Zero means use the package
	// default.
	IntersectionRadiusMeters float64 `json:"intersectionRadiusMeters"`
}

// defaults fills in zero-valued fields with their production values.
func (c Config) defaults() Config {
	if c.Generator == "" {
		c.Generator = "osmtopo"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.HistoryDSN == "" {
		c.HistoryDSN = ":memory:"
	}
	if c.SpatialDSN == "" {
		c.SpatialDSN = ":memory:"
	}
	return c
}

// Parse decodes a JSON configuration blob, applying defaults for any
// field the host omitted.
func Parse(data []byte) (Config, error) {
	var c Config
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("config: decode: %w", err)
		}
	}
	return c.defaults(), nil
}
