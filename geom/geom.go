// Package geom provides the bounding-box value type shared by every element
// source. Boxes live in viewport logical coordinates; OCR polygons arrive in
// screenshot pixel space and are rescaled at construction.
package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when rectangle or polygon input is malformed.
var ErrInvalidGeometry = errors.New("geom: invalid geometry")

// Box is an axis-aligned bounding box. Right and Bottom are reconciled with
// Width and Height at construction, never re-derived lazily.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FromRect builds a Box from a left/top/width/height rectangle.
func FromRect(left, top, width, height float64) Box {
	return Box{
		Left:   left,
		Top:    top,
		Width:  width,
		Height: height,
		Right:  left + width,
		Bottom: top + height,
	}
}

// FromPosition builds a Box from DOM position data (x, y, width, height).
func FromPosition(x, y, width, height float64) Box {
	return FromRect(x, y, width, height)
}

// FromPolygon builds the envelope of an OCR polygon. The polygon is a flat
// x1,y1,x2,y2,... list and must describe at least 4 points. scaleX and scaleY
// are the screenshot-pixel / viewport-logical ratios; coordinates are divided
// by them so the result lands in viewport space alongside DOM boxes.
func FromPolygon(polygon []float64, scaleX, scaleY float64) (Box, error) {
	if len(polygon) < 8 {
		return Box{}, fmt.Errorf("%w: polygon needs at least 4 points (8 coordinates), got %d", ErrInvalidGeometry, len(polygon))
	}
	if len(polygon)%2 != 0 {
		return Box{}, fmt.Errorf("%w: polygon has odd coordinate count %d", ErrInvalidGeometry, len(polygon))
	}
	if scaleX <= 0 {
		scaleX = 1
	}
	if scaleY <= 0 {
		scaleY = 1
	}

	left, top := math.Inf(1), math.Inf(1)
	right, bottom := math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(polygon); i += 2 {
		x := polygon[i] / scaleX
		y := polygon[i+1] / scaleY
		left = math.Min(left, x)
		top = math.Min(top, y)
		right = math.Max(right, x)
		bottom = math.Max(bottom, y)
	}

	return Box{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
		Width:  right - left,
		Height: bottom - top,
	}, nil
}

// Area returns the box area.
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// Overlap returns the intersection area divided by the smaller of the two box
// areas. The metric is containment-biased rather than IoU so a small OCR line
// matches a larger DOM container. Returns 0 when the boxes do not intersect.
func (b Box) Overlap(other Box) float64 {
	left := math.Max(b.Left, other.Left)
	top := math.Max(b.Top, other.Top)
	right := math.Min(b.Right, other.Right)
	bottom := math.Min(b.Bottom, other.Bottom)

	if right <= left || bottom <= top {
		return 0
	}

	intersection := (right - left) * (bottom - top)
	smaller := math.Min(b.Area(), other.Area())
	if smaller <= 0 {
		return 0
	}
	return intersection / smaller
}

// Union returns the smallest box containing both b and other. It always
// succeeds; for disjoint boxes it produces the bounding envelope.
func (b Box) Union(other Box) Box {
	left := math.Min(b.Left, other.Left)
	top := math.Min(b.Top, other.Top)
	right := math.Max(b.Right, other.Right)
	bottom := math.Max(b.Bottom, other.Bottom)

	return Box{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
		Width:  right - left,
		Height: bottom - top,
	}
}

// AlmostEqual reports whether all four edges of the boxes are within
// tolerance pixels of each other.
func (b Box) AlmostEqual(other Box, tolerance float64) bool {
	return math.Abs(b.Left-other.Left) <= tolerance &&
		math.Abs(b.Top-other.Top) <= tolerance &&
		math.Abs(b.Right-other.Right) <= tolerance &&
		math.Abs(b.Bottom-other.Bottom) <= tolerance
}

// Contains reports whether other lies entirely inside b.
func (b Box) Contains(other Box) bool {
	return other.Left >= b.Left && other.Top >= b.Top &&
		other.Right <= b.Right && other.Bottom <= b.Bottom
}

// Empty reports whether the box has no usable extent.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}
