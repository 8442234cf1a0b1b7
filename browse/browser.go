// Package browse acquires raw page data from a real Chrome: the DOM walk,
// clickable scan, viewport screenshot, hover captures, and element crops
// that feed fusion. A layout-less static fallback parses raw HTML without a
// browser.
package browse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Stealth applies the stealth evasions to every new page. Default: on.
	// Set DisableStealth to open plain pages.
	DisableStealth bool

	// NavTimeout bounds navigation plus load wait. Default: 30s.
	NavTimeout time.Duration

	// HoverSettle is how long to let hover transitions play out before the
	// after-state capture. Default: 300ms.
	HoverSettle time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.HoverSettle <= 0 {
		c.HoverSettle = 300 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser manages one Chrome connection and opens capture pages on it.
type Browser struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// New creates a Browser. Call Start to launch or connect Chrome.
func New(cfg Config) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

// Start launches a local Chrome (or connects to RemoteURL) and verifies the
// connection.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("browse: browser is closed")
	}
	if b.browser != nil {
		return nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browse: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("browse: launched local chrome", "url", wsURL)
	} else {
		b.cfg.Logger.Info("browse: connecting to remote chrome", "url", wsURL)
	}

	browser := rod.New().ControlURL(wsURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("browse: connect: %w", err)
	}
	if err := browser.IgnoreCertErrors(true); err != nil {
		b.cfg.Logger.Warn("browse: ignore cert errors failed", "error", err)
	}

	b.browser = browser
	return nil
}

// Close shuts down the connection and, for a locally-launched Chrome, the
// process itself.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

// Open creates a page, navigates it to pageURL, and waits for load. A load
// wait timeout is logged but not fatal; slow pages still yield a usable
// partial snapshot.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Page, error) {
	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return nil, fmt.Errorf("browse: browser not started")
	}

	var page *rod.Page
	var err error
	if b.cfg.DisableStealth {
		page, err = browser.Page(proto.TargetCreateTarget{URL: ""})
	} else {
		page, err = stealth.Page(browser)
	}
	if err != nil {
		return nil, fmt.Errorf("browse: create page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browse: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browse: wait load timeout", "url", pageURL, "error", err)
	}

	return &Page{
		page:   page,
		url:    pageURL,
		settle: b.cfg.HoverSettle,
		log:    b.cfg.Logger,
	}, nil
}
