// Package visdiff finds the visual deltas between two viewport captures taken
// around a simulated hover, turning raw rasters and computed-style snapshots
// into a HoverChange annotation. Anti-aliasing noise is filtered out by
// thresholding, dilation, and a minimum component size.
package visdiff

import (
	"context"
	"errors"
	"image"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/geom"
)

// ErrSizeMismatch is returned when the before/after rasters differ in size.
var ErrSizeMismatch = errors.New("visdiff: raster sizes differ")

// TextReader reads visible text out of a raster crop. Implementations wrap
// the external OCR collaborator; failures are contained per call.
type TextReader interface {
	ReadText(ctx context.Context, img image.Image) (string, error)
}

// Detector computes changed regions and style deltas between hover captures.
type Detector struct {
	cfg    Config
	reader TextReader
}

// NewDetector creates a detector. reader may be nil, in which case hover
// change records carry no detected text.
func NewDetector(cfg Config, reader TextReader) *Detector {
	cfg.applyDefaults()
	return &Detector{cfg: cfg, reader: reader}
}

// ChangedRegions detects the regions that differ between two same-sized
// rasters: grayscale absolute difference, binary threshold, dilation, then
// connected-component extraction with a minimum area and dimension filter.
// Identical rasters yield an empty slice.
func (d *Detector) ChangedRegions(before, after image.Image) ([]geom.Box, error) {
	bb, ab := before.Bounds(), after.Bounds()
	if bb.Dx() != ab.Dx() || bb.Dy() != ab.Dy() {
		return nil, ErrSizeMismatch
	}

	w, h := bb.Dx(), bb.Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gb := grayAt(before, bb.Min.X+x, bb.Min.Y+y)
			ga := grayAt(after, ab.Min.X+x, ab.Min.Y+y)
			if absDiff(gb, ga) > d.cfg.DiffThreshold {
				mask[y*w+x] = true
			}
		}
	}

	for range d.cfg.DilationPasses {
		mask = dilate(mask, w, h, d.cfg.DilationRadius)
	}

	var regions []geom.Box
	for _, comp := range components(mask, w, h) {
		box := geom.FromRect(float64(comp.minX), float64(comp.minY),
			float64(comp.maxX-comp.minX+1), float64(comp.maxY-comp.minY+1))
		if box.Area() < d.cfg.MinRegionArea ||
			box.Width < d.cfg.MinRegionDim || box.Height < d.cfg.MinRegionDim {
			continue
		}
		regions = append(regions, box)
	}
	return regions, nil
}

// StyleSnapshot carries the computed-style values captured alongside each
// raster. Values are raw CSS strings as reported by the browser.
type StyleSnapshot struct {
	Width   string `json:"width"`
	Height  string `json:"height"`
	Opacity string `json:"opacity"`
	Cursor  string `json:"cursor"`
}

// Compare assembles a HoverChange from before/after element crops and their
// style snapshots. It returns (nil, nil) when no change regions survive the
// noise filter: identical rasters produce no hover-change record at all.
// Dominant colors are included only when they differ; all other measured
// before/after pairs are reported unconditionally.
func (d *Detector) Compare(ctx context.Context, before, after image.Image, styleBefore, styleAfter StyleSnapshot) (*element.HoverChange, error) {
	regions, err := d.ChangedRegions(before, after)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, nil
	}

	hc := &element.HoverChange{ChangeRegions: regions, CursorStyle: styleAfter.Cursor}

	cb, ca := DominantColor(before), DominantColor(after)
	if cb != ca {
		hc.ColorBefore, hc.ColorAfter = &cb, &ca
	}

	if wb, ok := ParseCSSDimension(styleBefore.Width); ok {
		if hb, ok := ParseCSSDimension(styleBefore.Height); ok {
			hc.SizeBefore = &element.Size{Width: wb, Height: hb}
		}
	}
	if wa, ok := ParseCSSDimension(styleAfter.Width); ok {
		if ha, ok := ParseCSSDimension(styleAfter.Height); ok {
			hc.SizeAfter = &element.Size{Width: wa, Height: ha}
		}
	}

	if ob, ok := ParseCSSDimension(styleBefore.Opacity); ok {
		hc.OpacityBefore = &ob
	}
	if oa, ok := ParseCSSDimension(styleAfter.Opacity); ok {
		hc.OpacityAfter = &oa
	}

	if d.reader != nil {
		hc.TextBefore = d.readText(ctx, before)
		hc.TextAfter = d.readText(ctx, after)
	}
	return hc, nil
}

func (d *Detector) readText(ctx context.Context, img image.Image) string {
	text, err := d.reader.ReadText(ctx, img)
	if err != nil {
		d.cfg.Logger.Warn("visdiff: hover text detection failed", "error", err)
		return ""
	}
	return text
}

func grayAt(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	// ITU-R BT.601 luma on 16-bit channel values.
	return uint8((299*r + 587*g + 114*b) / 1000 >> 8)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func dilate(mask []bool, w, h, radius int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx >= 0 && xx < w {
						out[yy*w+xx] = true
					}
				}
			}
		}
	}
	return out
}

type component struct {
	minX, minY, maxX, maxY int
}

// components labels 4-connected regions of the mask with an iterative flood
// fill, tracking each region's bounding rectangle.
func components(mask []bool, w, h int) []component {
	seen := make([]bool, len(mask))
	var out []component

	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		comp := component{minX: w, minY: h, maxX: -1, maxY: -1}
		stack := []int{start}
		seen[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%w, idx/w
			if x < comp.minX {
				comp.minX = x
			}
			if x > comp.maxX {
				comp.maxX = x
			}
			if y < comp.minY {
				comp.minY = y
			}
			if y > comp.maxY {
				comp.maxY = y
			}

			for _, n := range [4]int{idx - w, idx + w, idx - 1, idx + 1} {
				if n < 0 || n >= len(mask) {
					continue
				}
				// Horizontal neighbors must stay on the same row.
				if (n == idx-1 || n == idx+1) && n/w != y {
					continue
				}
				if mask[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}
