package fuse

import (
	"strings"

	"github.com/pagefuse/pagefuse/element"
)

// findMatchingDOM selects the DOM element with the highest overlap strictly
// above the configured threshold. OCR candidates additionally require
// case-insensitive substring containment in either direction between the two
// texts; clickable candidates require equal tag names. No match is fine;
// the candidate simply stays un-enriched.
func (e *Engine) findMatchingDOM(candidate *element.Element, domElements []*element.Element) *element.Element {
	if candidate == nil || candidate.BoundingBox.Empty() {
		return nil
	}

	var best *element.Element
	bestOverlap := e.cfg.OverlapThreshold

	for _, dom := range domElements {
		if dom == nil || dom.BoundingBox.Empty() {
			continue
		}

		overlap := candidate.BoundingBox.Overlap(dom.BoundingBox)
		if overlap <= bestOverlap {
			continue
		}

		if candidate.Type == element.SourceOCR {
			domText := dom.Content
			if domText == "" {
				domText = dom.DOMText
			}
			domText = strings.ToLower(strings.TrimSpace(domText))
			ocrText := strings.ToLower(strings.TrimSpace(candidate.Content))

			if domText == "" {
				continue
			}
			if !strings.Contains(ocrText, domText) && !strings.Contains(domText, ocrText) {
				continue
			}
		} else if candidate.Tag != dom.Tag {
			continue
		}

		bestOverlap = overlap
		best = dom
	}
	return best
}
