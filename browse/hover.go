package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/visdiff"
)

// HoverCapture holds one element's raw resting and hovered observations. The
// two rasters cover the same padded element rectangle so they diff directly.
type HoverCapture struct {
	Before      image.Image
	After       image.Image
	StyleBefore visdiff.StyleSnapshot
	StyleAfter  visdiff.StyleSnapshot
}

// hoverPad widens the captured rectangle so effects that grow past the
// element's resting box (shadows, scale transforms) stay in frame.
const hoverPad = 10

// CaptureHover records an element's visual and style state before and after
// moving the pointer onto it. The capture rectangle is fixed from the resting
// geometry, so both rasters have identical dimensions even when hover resizes
// the element.
func (p *Page) CaptureHover(ctx context.Context, selector string) (*HoverCapture, error) {
	page := p.page.Context(ctx)

	el, err := page.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("browse: find %q: %w", selector, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		p.log.Warn("browse: scroll into view failed", "selector", selector, "error", err)
	}
	shape, err := el.Shape()
	if err != nil {
		return nil, fmt.Errorf("browse: element shape %q: %w", selector, err)
	}
	box := shape.Box()

	styleBefore, err := p.computedStyle(ctx, selector)
	if err != nil {
		return nil, err
	}
	before, err := p.cropViewport(ctx, box.X, box.Y, box.Width, box.Height)
	if err != nil {
		return nil, err
	}

	if err := el.Hover(); err != nil {
		return nil, fmt.Errorf("browse: hover %q: %w", selector, err)
	}
	select {
	case <-time.After(p.settle):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	styleAfter, err := p.computedStyle(ctx, selector)
	if err != nil {
		return nil, err
	}
	after, err := p.cropViewport(ctx, box.X, box.Y, box.Width, box.Height)
	if err != nil {
		return nil, err
	}

	return &HoverCapture{
		Before:      before,
		After:       after,
		StyleBefore: styleBefore,
		StyleAfter:  styleAfter,
	}, nil
}

// DetectHover captures an element's hover transition and runs the visual
// diff. A nil change means the element does not react to hover.
func (p *Page) DetectHover(ctx context.Context, det *visdiff.Detector, selector string) (*element.HoverChange, error) {
	hc, err := p.CaptureHover(ctx, selector)
	if err != nil {
		return nil, err
	}
	return det.Compare(ctx, hc.Before, hc.After, hc.StyleBefore, hc.StyleAfter)
}

func (p *Page) computedStyle(ctx context.Context, selector string) (visdiff.StyleSnapshot, error) {
	res, err := p.page.Context(ctx).Eval(computedStyleScript, selector)
	if err != nil {
		return visdiff.StyleSnapshot{}, fmt.Errorf("browse: computed style %q: %w", selector, err)
	}
	var snap *visdiff.StyleSnapshot
	if err := json.Unmarshal([]byte(res.Value.Str()), &snap); err != nil {
		return visdiff.StyleSnapshot{}, fmt.Errorf("browse: decode style %q: %w", selector, err)
	}
	if snap == nil {
		return visdiff.StyleSnapshot{}, fmt.Errorf("browse: element %q not found", selector)
	}
	return *snap, nil
}

// cropViewport screenshots the viewport and cuts out the padded element
// rectangle, converted to screenshot pixel space.
func (p *Page) cropViewport(ctx context.Context, x, y, w, h float64) (image.Image, error) {
	data, err := p.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	raster, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("browse: decode screenshot: %w", err)
	}
	vp, err := p.ViewportSize(ctx)
	if err != nil {
		return nil, err
	}
	scaleX, scaleY := 1.0, 1.0
	if vp.Width > 0 {
		scaleX = float64(raster.Bounds().Dx()) / vp.Width
	}
	if vp.Height > 0 {
		scaleY = float64(raster.Bounds().Dy()) / vp.Height
	}

	rect := image.Rect(
		int((x-hoverPad)*scaleX),
		int((y-hoverPad)*scaleY),
		int((x+w+hoverPad)*scaleX),
		int((y+h+hoverPad)*scaleY),
	).Intersect(raster.Bounds())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("browse: element rect outside viewport")
	}

	si, ok := raster.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("browse: screenshot raster does not support cropping")
	}
	return si.SubImage(rect), nil
}
