package search

import (
	"fmt"
	"sort"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/geom"
)

// Region names one of the nine page zones.
type Region string

const (
	RegionTop         Region = "top"
	RegionBottom      Region = "bottom"
	RegionLeft        Region = "left"
	RegionRight       Region = "right"
	RegionCenter      Region = "center"
	RegionTopLeft     Region = "top_left"
	RegionTopRight    Region = "top_right"
	RegionBottomLeft  Region = "bottom_left"
	RegionBottomRight Region = "bottom_right"
)

// ParseRegion validates a region name.
func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case RegionTop, RegionBottom, RegionLeft, RegionRight, RegionCenter,
		RegionTopLeft, RegionTopRight, RegionBottomLeft, RegionBottomRight:
		return Region(s), nil
	}
	return "", fmt.Errorf("search: unknown region %q", s)
}

// RegionBounds computes the constraint box for a set of zones over a page of
// the given dimensions. Band zones (top/bottom/left/right/center) intersect
// their fractional ranges; the four corner zones are mutually exclusive
// overrides applied last.
func RegionBounds(pageWidth, pageHeight float64, regions ...Region) geom.Box {
	left, top := 0.0, 0.0
	right, bottom := pageWidth, pageHeight

	in := func(r Region) bool {
		for _, have := range regions {
			if have == r {
				return true
			}
		}
		return false
	}

	if in(RegionTop) {
		bottom = pageHeight * 0.33
	}
	if in(RegionBottom) {
		top = pageHeight * 0.67
	}
	if in(RegionLeft) {
		right = pageWidth * 0.33
	}
	if in(RegionRight) {
		left = pageWidth * 0.67
	}
	if in(RegionCenter) {
		left, right = pageWidth*0.33, pageWidth*0.67
		top, bottom = pageHeight*0.33, pageHeight*0.67
	}

	switch {
	case in(RegionTopLeft):
		right, bottom = pageWidth*0.33, pageHeight*0.33
	case in(RegionTopRight):
		left, bottom = pageWidth*0.67, pageHeight*0.33
	case in(RegionBottomLeft):
		right, top = pageWidth*0.33, pageHeight*0.67
	case in(RegionBottomRight):
		left, top = pageWidth*0.67, pageHeight*0.67
	}

	return geom.FromRect(left, top, right-left, bottom-top)
}

// SearchByRegion returns the indexed elements that fall inside the named
// zones: fully contained, or overlapping the zone by more than the configured
// fraction of their own area. Results are sorted by top edge ascending.
func (ix *Index) SearchByRegion(regions ...Region) []*element.Element {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.elements) == 0 {
		return nil
	}

	// Maximum observed element extents stand in for the page size.
	var pageWidth, pageHeight float64
	for _, el := range ix.elements {
		if el.BoundingBox.Right > pageWidth {
			pageWidth = el.BoundingBox.Right
		}
		if el.BoundingBox.Bottom > pageHeight {
			pageHeight = el.BoundingBox.Bottom
		}
	}

	bounds := RegionBounds(pageWidth, pageHeight, regions...)

	var matches []*element.Element
	for _, el := range ix.elements {
		if regionContains(bounds, el.BoundingBox, ix.cfg.RegionOverlap) {
			matches = append(matches, el)
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].BoundingBox.Top < matches[b].BoundingBox.Top
	})
	return matches
}

func regionContains(bounds, bb geom.Box, fraction float64) bool {
	if bb.Left >= bounds.Left && bb.Top >= bounds.Top &&
		bb.Right <= bounds.Right && bb.Bottom <= bounds.Bottom {
		return true
	}

	overlapLeft := max(bounds.Left, bb.Left)
	overlapTop := max(bounds.Top, bb.Top)
	overlapRight := min(bounds.Right, bb.Right)
	overlapBottom := min(bounds.Bottom, bb.Bottom)
	if overlapLeft >= overlapRight || overlapTop >= overlapBottom {
		return false
	}

	overlapArea := (overlapRight - overlapLeft) * (overlapBottom - overlapTop)
	return overlapArea > bb.Area()*fraction
}
