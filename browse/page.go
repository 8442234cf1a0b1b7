package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/fuse"
)

// Page is one open tab ready for capture.
type Page struct {
	page   *rod.Page
	url    string
	settle time.Duration
	log    *slog.Logger
}

// URL returns the address the page was opened with.
func (p *Page) URL() string { return p.url }

// Close closes the tab.
func (p *Page) Close() error {
	if p.page != nil {
		return p.page.Close()
	}
	return nil
}

// DOMTree runs the injected walk and decodes the visible-element tree.
func (p *Page) DOMTree(ctx context.Context) (*element.DOMTree, error) {
	res, err := p.page.Context(ctx).Eval(domTreeScript)
	if err != nil {
		return nil, fmt.Errorf("browse: dom walk: %w", err)
	}
	var tree element.DOMTree
	if err := json.Unmarshal([]byte(res.Value.Str()), &tree); err != nil {
		return nil, fmt.Errorf("browse: decode dom tree: %w", err)
	}
	return &tree, nil
}

// Clickables runs the interactive-candidate scan.
func (p *Page) Clickables(ctx context.Context) ([]element.Clickable, error) {
	res, err := p.page.Context(ctx).Eval(clickableScanScript)
	if err != nil {
		return nil, fmt.Errorf("browse: clickable scan: %w", err)
	}
	var out []element.Clickable
	if err := json.Unmarshal([]byte(res.Value.Str()), &out); err != nil {
		return nil, fmt.Errorf("browse: decode clickables: %w", err)
	}
	return out, nil
}

// Viewport is the logical viewport size in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewportSize reads the logical viewport dimensions.
func (p *Page) ViewportSize(ctx context.Context) (Viewport, error) {
	res, err := p.page.Context(ctx).Eval(viewportScript)
	if err != nil {
		return Viewport{}, fmt.Errorf("browse: viewport size: %w", err)
	}
	var vp Viewport
	if err := json.Unmarshal([]byte(res.Value.Str()), &vp); err != nil {
		return Viewport{}, fmt.Errorf("browse: decode viewport: %w", err)
	}
	return vp, nil
}

// Screenshot captures the visible viewport as PNG bytes.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browse: screenshot: %w", err)
	}
	return data, nil
}

// Capture is a full raw snapshot of one page: everything fusion needs plus
// the decoded raster for crops and hover diffing.
type Capture struct {
	URL      string
	Sources  fuse.Sources
	Raster   image.Image
	PNG      []byte
	Viewport Viewport
}

// Capture gathers the DOM tree, clickable candidates, and a screenshot in one
// pass, and computes the screenshot-pixel to viewport-logical scale factors.
func (p *Page) Capture(ctx context.Context) (*Capture, error) {
	tree, err := p.DOMTree(ctx)
	if err != nil {
		return nil, err
	}
	clickables, err := p.Clickables(ctx)
	if err != nil {
		return nil, err
	}
	vp, err := p.ViewportSize(ctx)
	if err != nil {
		return nil, err
	}
	data, err := p.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	raster, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("browse: decode screenshot: %w", err)
	}

	scaleX, scaleY := 1.0, 1.0
	if vp.Width > 0 {
		scaleX = float64(raster.Bounds().Dx()) / vp.Width
	}
	if vp.Height > 0 {
		scaleY = float64(raster.Bounds().Dy()) / vp.Height
	}

	return &Capture{
		URL: p.url,
		Sources: fuse.Sources{
			DOM:        tree,
			Clickables: clickables,
			ScaleX:     scaleX,
			ScaleY:     scaleY,
		},
		Raster:   raster,
		PNG:      data,
		Viewport: vp,
	}, nil
}

// Crops returns a crop supplier over the capture's screenshot. Element boxes
// are in viewport logical coordinates and are scaled back to screenshot
// pixels before cropping; out-of-raster or degenerate boxes yield no crop.
func (c *Capture) Crops() fuse.CropFunc {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}

	return func(el *element.Element) ([]byte, bool) {
		if el == nil || el.BoundingBox.Empty() || c.Raster == nil {
			return nil, false
		}
		bb := el.BoundingBox
		rect := image.Rect(
			int(bb.Left*c.Sources.ScaleX),
			int(bb.Top*c.Sources.ScaleY),
			int(bb.Right*c.Sources.ScaleX),
			int(bb.Bottom*c.Sources.ScaleY),
		).Intersect(c.Raster.Bounds())
		if rect.Dx() <= 0 || rect.Dy() <= 0 {
			return nil, false
		}

		si, ok := c.Raster.(subImager)
		if !ok {
			return nil, false
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, si.SubImage(rect)); err != nil {
			return nil, false
		}
		return buf.Bytes(), true
	}
}
