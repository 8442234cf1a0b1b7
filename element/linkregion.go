package element

import (
	"math"
	"sort"
	"strings"

	"github.com/pagefuse/pagefuse/geom"
)

// LinkRegion is a read-only fact about a sub-span of an element's text that
// is independently a hyperlink.
type LinkRegion struct {
	BoundingBox geom.Box `json:"bounding_box"`
	Href        string   `json:"href"`
	Selector    string   `json:"selector,omitempty"`
	Text        string   `json:"text"`
}

// DeduplicateLinkRegions removes duplicates, keyed by (text, href, selector).
// First occurrence wins; order is otherwise preserved.
func DeduplicateLinkRegions(regions []LinkRegion) []LinkRegion {
	type key struct {
		text, href, selector string
	}
	seen := make(map[key]struct{}, len(regions))
	unique := regions[:0:0]

	for _, r := range regions {
		k := key{r.Text, r.Href, r.Selector}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// ExtractLinkRegions finds sub-spans of text that correspond to anchor
// elements. An anchor qualifies when its box overlaps the text box by at
// least half, or when it sits immediately below with near-identical left and
// right edges. Longer anchor texts are tried first so the longest match wins
// ties. A span covering the whole text with a near-identical box is skipped:
// the anchor is the element itself, not a region of it.
func ExtractLinkRegions(text string, domElements []*Element, textBox geom.Box) []LinkRegion {
	if text == "" {
		return nil
	}

	var anchors []*Element
	for _, elem := range domElements {
		if elem == nil || elem.Tag != "a" || elem.Href == "" || elem.DOMText == "" {
			continue
		}
		bb := elem.BoundingBox
		adjacentBelow := math.Abs(bb.Left-textBox.Left) < 10 &&
			math.Abs(bb.Right-textBox.Right) < 10 &&
			math.Abs(bb.Top-textBox.Bottom) < 20
		if bb.Overlap(textBox) >= 0.5 || adjacentBelow {
			anchors = append(anchors, elem)
		}
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		return len(anchors[i].DOMText) > len(anchors[j].DOMText)
	})

	var regions []LinkRegion
	lower := strings.ToLower(text)
	for _, anchor := range anchors {
		anchorText := strings.TrimSpace(anchor.DOMText)
		if anchorText == "" {
			continue
		}

		start := strings.Index(lower, strings.ToLower(anchorText))
		if start < 0 {
			continue
		}
		end := start + len(anchorText)
		if end > len(text) {
			end = len(text)
		}
		matched := text[start:end]

		if strings.TrimSpace(matched) == strings.TrimSpace(text) &&
			anchor.BoundingBox.AlmostEqual(textBox, 1.0) {
			continue
		}

		regions = append(regions, LinkRegion{
			Text:        matched,
			Href:        anchor.Href,
			Selector:    anchor.Selector,
			BoundingBox: anchor.BoundingBox,
		})
	}
	return regions
}
