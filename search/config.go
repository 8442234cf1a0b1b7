package search

import "log/slog"

// Config tunes retrieval and blending.
type Config struct {
	// Temperature divides cosine similarities to sharpen the score
	// distribution. Default: 0.07.
	Temperature float64 `yaml:"temperature"`
	// TopN is the initial retrieval depth fed to the reranker. Default: 10.
	TopN int `yaml:"top_n"`
	// TopK is the final result count after rerank blending. Default: 5.
	TopK int `yaml:"top_k"`
	// RerankWeight is the blend weight given to the reranker score; the
	// initial score gets the remainder. Default: 0.7.
	RerankWeight float64 `yaml:"rerank_weight"`
	// RegionOverlap is the fraction of an element's own area that must fall
	// inside a region for a partial match. Default: 0.5.
	RegionOverlap float64 `yaml:"region_overlap"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) applyDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.07
	}
	if c.TopN == 0 {
		c.TopN = 10
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.RerankWeight == 0 {
		c.RerankWeight = 0.7
	}
	if c.RegionOverlap == 0 {
		c.RegionOverlap = 0.5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
