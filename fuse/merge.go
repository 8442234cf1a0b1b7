package fuse

import (
	"math"
	"sort"
	"strings"

	"github.com/pagefuse/pagefuse/element"
)

// shouldMergeFragments decides whether two elements are fragments of the same
// visual text block. They merge when they share a non-empty DOM text or
// selector, or when they are vertically adjacent with aligned left edges,
// the same tag, and the same visibility record. The predicate is
// deliberately not transitive; run grouping below handles chains.
func (e *Engine) shouldMergeFragments(a, b *element.Element) bool {
	if a == nil || b == nil {
		return false
	}

	if a.DOMText != "" && a.DOMText == b.DOMText {
		return true
	}
	if a.Selector != "" && a.Selector == b.Selector {
		return true
	}

	ba, bb := a.BoundingBox, b.BoundingBox
	verticalGap := math.Min(math.Abs(ba.Bottom-bb.Top), math.Abs(bb.Bottom-ba.Top))

	return verticalGap <= e.cfg.MaxVerticalGap &&
		math.Abs(ba.Left-bb.Left) < e.cfg.MaxLeftDelta &&
		a.Tag == b.Tag &&
		element.VisibilityEqual(a.Visibility, b.Visibility)
}

// mergeFragments groups elements by tag, sorts each group by top edge, and
// greedily folds contiguous runs of mergeable fragments into single elements.
// Geometry is the running union, confidence is the max, and text fields are
// concatenated or coalesced preferring non-empty values.
func (e *Engine) mergeFragments(elements []*element.Element) []*element.Element {
	byTag := make(map[string][]*element.Element)
	var tags []string
	for _, el := range elements {
		if el == nil {
			continue
		}
		if _, ok := byTag[el.Tag]; !ok {
			tags = append(tags, el.Tag)
		}
		byTag[el.Tag] = append(byTag[el.Tag], el)
	}
	sort.Strings(tags)

	var final []*element.Element
	for _, tag := range tags {
		group := byTag[tag]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].BoundingBox.Top < group[j].BoundingBox.Top
		})

		i := 0
		for i < len(group) {
			merged := group[i]

			j := i + 1
			for j < len(group) {
				next := group[j]
				if !e.shouldMergeFragments(merged, next) {
					break
				}
				merged = mergePair(merged, next)
				j++
			}

			final = append(final, merged)
			// Run-grouping advancement: skip everything the run consumed,
			// otherwise step by one.
			if j > i+1 {
				i = j
			} else {
				i++
			}
		}
	}
	return final
}

// mergePair combines two fragments into a fresh element. The result re-runs
// selector synthesis when neither side carried one.
func mergePair(a, b *element.Element) *element.Element {
	var contents []string
	if a.Content != "" {
		contents = append(contents, a.Content)
	}
	if b.Content != "" {
		contents = append(contents, b.Content)
	}

	merged := &element.Element{
		BoundingBox: a.BoundingBox.Union(b.BoundingBox),
		Type:        a.Type,
		Tag:         a.Tag,
		Content:     strings.Join(contents, " "),
		Confidence:  math.Max(a.Confidence, b.Confidence),
		DOMText:     coalesce(a.DOMText, b.DOMText),
		OCRText:     joinNonEmpty(a.OCRText, b.OCRText),
		Selector:    coalesce(a.Selector, b.Selector),
		Visibility:  a.Visibility,
		HoverState:  a.HoverState,
		Href:        coalesce(a.Href, b.Href),
		Src:         coalesce(a.Src, b.Src),
	}
	if merged.Visibility == nil {
		merged.Visibility = b.Visibility
	}
	if merged.HoverState == nil {
		merged.HoverState = b.HoverState
	}
	merged.Words = append(append([]element.Word(nil), a.Words...), b.Words...)
	merged.Screenshots = append(append([]string(nil), a.Screenshots...), b.Screenshots...)
	if regions := append(append([]element.LinkRegion(nil), a.LinkRegions...), b.LinkRegions...); len(regions) > 0 {
		merged.LinkRegions = element.DeduplicateLinkRegions(regions)
	}
	merged.ImageCaption = coalesce(a.ImageCaption, b.ImageCaption)
	merged.EnsureSelector()
	return merged
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
