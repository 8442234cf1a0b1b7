// Package element defines the unified page-element record: the fused entity
// combining geometry, provenance-tagged text, and derived annotations from
// the DOM walk, OCR, and clickable-scan sources.
package element

import (
	"strings"

	"github.com/pagefuse/pagefuse/geom"
)

// Source tags which raw producer an element originated from.
type Source string

const (
	SourceDOM       Source = "dom"
	SourceOCR       Source = "ocr"
	SourceClickable Source = "clickable"
	SourceUnknown   Source = "unknown"
)

// Element is the unified representation of a page element. It is constructed
// once per raw source record and then enriched in place during fusion:
// geometry may be extended via union when fragments merge, and DOM-derived
// fields may be copied in from a matched counterpart. Provenance-only fields
// (DOMText, OCRText, Words) stay optional regardless of Type.
type Element struct {
	BoundingBox  geom.Box     `json:"bounding_box"`
	Type         Source       `json:"element_type"`
	Content      string       `json:"content,omitempty"`
	DOMText      string       `json:"dom_text,omitempty"`
	OCRText      string       `json:"ocr_text,omitempty"`
	Tag          string       `json:"tag,omitempty"`
	Href         string       `json:"href,omitempty"`
	Src          string       `json:"src,omitempty"`
	Confidence   float64      `json:"confidence"`
	Selector     string       `json:"selector,omitempty"`
	Visibility   *Visibility  `json:"visibility,omitempty"`
	Screenshots  []string     `json:"screenshots,omitempty"`
	ImageCaption string       `json:"image_caption,omitempty"`
	HoverState   *HoverChange `json:"hover_state,omitempty"`
	LinkRegions  []LinkRegion `json:"link_regions,omitempty"`
	Words        []Word       `json:"words,omitempty"`
	Children     []*Element   `json:"children,omitempty"`
}

// FromDOMNode builds an element tree from a captured DOM node. Children are
// converted recursively; this is the only constructor that populates them.
// Returns nil for nodes without properties.
func FromDOMNode(node *DOMNode) *Element {
	if node == nil || node.Properties == nil {
		return nil
	}
	props := node.Properties

	var box geom.Box
	if props.Position != nil {
		box = geom.FromPosition(props.Position.X, props.Position.Y, props.Position.Width, props.Position.Height)
	}

	vis := props.Visibility
	e := &Element{
		BoundingBox: box,
		Type:        SourceDOM,
		Content:     props.Text,
		DOMText:     props.Text,
		Tag:         strings.ToLower(props.TagName),
		Href:        props.Href,
		Src:         props.Src,
		Selector:    props.Selector,
		Visibility:  &vis,
		Confidence:  1.0,
	}
	e.EnsureSelector()

	for i := range node.Children {
		if child := FromDOMNode(&node.Children[i]); child != nil {
			e.Children = append(e.Children, child)
		}
	}
	return e
}

// FromClickable builds an element from a clickable-scan candidate. Clickable
// sources are treated as ground truth, so confidence is fixed at 1.0.
func FromClickable(c Clickable) *Element {
	e := &Element{
		BoundingBox:  geom.FromRect(c.Rect.Left, c.Rect.Top, c.Rect.Width, c.Rect.Height),
		Type:         SourceClickable,
		Content:      c.Text,
		DOMText:      c.Text,
		Tag:          strings.ToLower(c.Tag),
		Href:         c.Href,
		Src:          c.Src,
		Selector:     c.Selector,
		Confidence:   1.0,
		HoverState:   c.HoverState,
		ImageCaption: c.ImageCaption,
		Screenshots:  c.Screenshots,
	}
	e.EnsureSelector()
	return e
}

// FromOCRLine builds an element from a raw OCR line, rescaling its polygon
// from screenshot pixel space into viewport space. The line's native
// confidence is carried through.
func FromOCRLine(line OCRLine, scaleX, scaleY float64) (*Element, error) {
	box, err := geom.FromPolygon(line.Polygon, scaleX, scaleY)
	if err != nil {
		return nil, err
	}
	e := &Element{
		BoundingBox: box,
		Type:        SourceOCR,
		Content:     line.Content,
		OCRText:     line.Content,
		Confidence:  line.Confidence,
		Words:       line.Words,
	}
	e.EnsureSelector()
	return e, nil
}

// CopyDOMProperties copies identity fields from a matched DOM element onto
// this one. The existing selector survives if the DOM element has none.
func (e *Element) CopyDOMProperties(dom *Element) {
	e.Href = dom.Href
	if dom.Selector != "" {
		e.Selector = dom.Selector
	}
	e.Src = dom.Src
	e.Tag = dom.Tag
	e.Visibility = dom.Visibility
	if dom.Content != "" {
		e.DOMText = dom.Content
	} else {
		e.DOMText = dom.DOMText
	}

	if len(dom.LinkRegions) > 0 {
		e.LinkRegions = DeduplicateLinkRegions(append(e.LinkRegions, dom.LinkRegions...))
	}
}

// OverlapsWith reports whether the element's box overlaps another element's
// box by at least threshold.
func (e *Element) OverlapsWith(other *Element, threshold float64) bool {
	if e == nil || other == nil {
		return false
	}
	return e.BoundingBox.Overlap(other.BoundingBox) >= threshold
}

// ProcessLinkRegions extracts link regions for the given text against the
// supplied DOM elements and folds them into the element, deduplicated.
func (e *Element) ProcessLinkRegions(text string, domElements []*Element) {
	if text == "" {
		return
	}
	regions := ExtractLinkRegions(text, domElements, e.BoundingBox)
	if len(regions) == 0 {
		return
	}
	e.LinkRegions = DeduplicateLinkRegions(append(e.LinkRegions, regions...))
}

// CombineTexts folds the DOM and OCR text into one string. When one side
// contains the other, the longer wins; otherwise both are kept with the OCR
// part marked.
func (e *Element) CombineTexts() string {
	dom := NormalizeText(e.DOMText)
	ocr := NormalizeText(e.OCRText)

	switch {
	case dom == "" && ocr == "":
		return ""
	case dom == "":
		return ocr
	case ocr == "":
		return dom
	case strings.Contains(strings.ToLower(ocr), strings.ToLower(dom)):
		return ocr
	case strings.Contains(strings.ToLower(dom), strings.ToLower(ocr)):
		return dom
	default:
		return dom + " [OCR detections: " + ocr + "]"
	}
}

// VisibilityEqual compares visibility records by value; two nil records are
// equal.
func VisibilityEqual(a, b *Visibility) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
