// Package vision wraps the external image-analysis collaborator: captioning,
// text detection, and line-level OCR over raster crops. Calls are throttled
// to a minimum inter-call interval to respect collaborator quotas.
package vision

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pagefuse/pagefuse/element"
)

// Analyzer is the external vision service seen by the rest of the system.
type Analyzer interface {
	// AnalyzeImage returns a caption and any detected text for an image.
	AnalyzeImage(ctx context.Context, img []byte) (caption, detectedText string, err error)

	// ReadLines runs line-level OCR over an image. Polygons are in the
	// image's own pixel space.
	ReadLines(ctx context.Context, img []byte) ([]element.OCRLine, error)
}

// Config configures the vision client.
type Config struct {
	// Endpoint is the base URL of the image-analysis service. If empty, a
	// noop analyzer is returned.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Key is the subscription key sent with each request.
	Key string `json:"key" yaml:"key"`

	// APIVersion selects the analysis API version. Default: 2023-10-01.
	APIVersion string `json:"api_version" yaml:"api_version"`

	// Timeout per HTTP request. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MinInterval is the minimum spacing between calls. Default: 1s.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.APIVersion == "" {
		c.APIVersion = "2023-10-01"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MinInterval <= 0 {
		c.MinInterval = time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates an Analyzer from config. An empty endpoint yields a noop
// analyzer that reports nothing, so fusion still works without the service.
func New(cfg Config) Analyzer {
	cfg.defaults()
	if cfg.Endpoint == "" {
		return noopAnalyzer{}
	}
	return newHTTPClient(cfg)
}

// throttle spaces out external calls. The last-call timestamp is a shared
// resource, so the check-and-update runs under a mutex; the wait itself does
// not hold the lock.
type throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// wait blocks until the caller may proceed, or until ctx is cancelled.
func (t *throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	next := t.last.Add(t.interval)
	if next.Before(now) {
		next = now
	}
	t.last = next
	t.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noopAnalyzer struct{}

func (noopAnalyzer) AnalyzeImage(context.Context, []byte) (string, string, error) {
	return "", "", nil
}

func (noopAnalyzer) ReadLines(context.Context, []byte) ([]element.OCRLine, error) {
	return nil, nil
}
