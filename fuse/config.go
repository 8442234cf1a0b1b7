package fuse

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the fusion thresholds. The defaults are hand-tuned against
// real pages; they are configuration, not invariants.
type Config struct {
	// OverlapThreshold is the minimum (exclusive) overlap ratio for a DOM
	// match. Default: 0.5.
	OverlapThreshold float64 `yaml:"overlap_threshold"`

	// MaxVerticalGap is the largest vertical gap, in pixels, between two
	// fragments that may still merge. Default: 25.
	MaxVerticalGap float64 `yaml:"max_vertical_gap"`

	// MaxLeftDelta is the largest left-edge difference, in pixels, between
	// two fragments that may still merge (exclusive). Default: 50.
	MaxLeftDelta float64 `yaml:"max_left_delta"`

	// BoxTolerance is the per-edge pixel tolerance for approximate box
	// equality. Default: 1.0.
	BoxTolerance float64 `yaml:"box_tolerance"`

	// EnrichmentWorkers bounds concurrent per-element vision calls.
	// Default: 5.
	EnrichmentWorkers int `yaml:"enrichment_workers"`

	// Logger for skipped records and enrichment failures. Defaults to
	// slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) applyDefaults() {
	if c.OverlapThreshold <= 0 {
		c.OverlapThreshold = 0.5
	}
	if c.MaxVerticalGap <= 0 {
		c.MaxVerticalGap = 25
	}
	if c.MaxLeftDelta <= 0 {
		c.MaxLeftDelta = 50
	}
	if c.BoxTolerance <= 0 {
		c.BoxTolerance = 1.0
	}
	if c.EnrichmentWorkers <= 0 {
		c.EnrichmentWorkers = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfigFile reads a YAML fusion configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fuse: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("fuse: parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
