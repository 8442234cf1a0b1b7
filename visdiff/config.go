package visdiff

import "log/slog"

// Config tunes the visual-change detector. The defaults were hand-tuned
// against real hover captures; keep them configurable rather than treating
// them as invariants.
type Config struct {
	// DiffThreshold is the grayscale absolute-difference cutoff (0-255)
	// above which a pixel counts as changed.
	DiffThreshold uint8 `yaml:"diff_threshold"`
	// DilationRadius is the half-width of the square dilation kernel; 2
	// gives the 5x5 kernel.
	DilationRadius int `yaml:"dilation_radius"`
	// DilationPasses is how many times the mask is dilated.
	DilationPasses int `yaml:"dilation_passes"`
	// MinRegionArea filters connected components below this bounding-box
	// area in square pixels.
	MinRegionArea float64 `yaml:"min_region_area"`
	// MinRegionDim filters components thinner than this in either axis.
	MinRegionDim float64 `yaml:"min_region_dim"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) applyDefaults() {
	if c.DiffThreshold == 0 {
		c.DiffThreshold = 40
	}
	if c.DilationRadius == 0 {
		c.DilationRadius = 2
	}
	if c.DilationPasses == 0 {
		c.DilationPasses = 2
	}
	if c.MinRegionArea == 0 {
		c.MinRegionArea = 500
	}
	if c.MinRegionDim == 0 {
		c.MinRegionDim = 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
