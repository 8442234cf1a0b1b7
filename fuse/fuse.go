// Package fuse assembles a single queryable element list from three noisy,
// independently-produced sources: a DOM walk, an OCR pass over a viewport
// screenshot, and a heuristic clickable scan. The sources share no identity
// key; matching runs on geometry and fuzzy text containment alone.
//
// Fusion is best-effort per page snapshot, not transactional: a raw record
// that cannot produce a valid element is logged and skipped, and one bad
// element never discards the rest of the page.
package fuse

import (
	"strings"

	"github.com/pagefuse/pagefuse/element"
)

// Sources carries one page snapshot's raw collections. ScaleX and ScaleY are
// the screenshot-pixel / viewport-logical ratios used to bring OCR polygons
// into viewport space; zero means 1:1.
type Sources struct {
	DOM        *element.DOMTree
	Clickables []element.Clickable
	OCRLines   []element.OCRLine
	ScaleX     float64
	ScaleY     float64
}

// Engine fuses raw source collections into unified elements. It is
// single-threaded and stateless between invocations except for the explicit
// per-run enrichment cache.
type Engine struct {
	cfg Config
}

// NewEngine creates a fusion engine.
func NewEngine(cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{cfg: cfg}
}

// Fuse turns the three raw collections into one ordered element list. An
// absent DOM tree yields the clickable/OCR-only subset; empty sources yield
// an empty list rather than an error.
func (e *Engine) Fuse(src Sources) []*element.Element {
	paragraphLinks := e.collectLinkHints(src.Clickables)
	domElements := e.collectDOMElements(src.DOM, paragraphLinks)

	var unified []*element.Element
	unified = append(unified, domElements...)
	unified = append(unified, e.processClickables(src.Clickables, domElements)...)
	unified = append(unified, e.processOCRLines(src.OCRLines, domElements, src.ScaleX, src.ScaleY)...)

	return e.mergeFragments(unified)
}

// collectLinkHints groups anchor candidates that live inside paragraphs by
// their parent-paragraph selector. The lookup is used to pre-attach link
// regions onto paragraph DOM elements during the walk.
func (e *Engine) collectLinkHints(clickables []element.Clickable) map[string][]*element.Element {
	hints := make(map[string][]*element.Element)

	for _, c := range clickables {
		el := element.FromClickable(c)
		if el.Selector == "" {
			continue
		}
		if el.Tag != "a" || !strings.Contains(el.Selector, "p:nth-child") {
			continue
		}
		parts := strings.Split(el.Selector, " > ")
		if len(parts) < 2 {
			continue
		}
		parent := strings.Join(parts[:len(parts)-1], " > ")
		hints[parent] = append(hints[parent], el)
	}
	return hints
}

// collectDOMElements walks the tree depth-first. Every node with usable
// position data becomes an element; paragraph nodes found in the link-hint
// lookup receive pre-populated link regions.
func (e *Engine) collectDOMElements(tree *element.DOMTree, paragraphLinks map[string][]*element.Element) []*element.Element {
	if tree == nil {
		return nil
	}

	var out []*element.Element
	var walk func(node *element.DOMNode)
	walk = func(node *element.DOMNode) {
		if node == nil {
			return
		}
		if props := node.Properties; props != nil && props.Position != nil {
			if el := element.FromDOMNode(node); el != nil {
				if el.Tag == "p" {
					if links, ok := paragraphLinks[el.Selector]; ok {
						el.LinkRegions = regionsFromLinks(links)
					}
				}
				out = append(out, el)
			}
		}
		for i := range node.Children {
			walk(&node.Children[i])
		}
	}

	for i := range tree.Children {
		walk(&tree.Children[i])
	}
	return out
}

func regionsFromLinks(links []*element.Element) []element.LinkRegion {
	regions := make([]element.LinkRegion, 0, len(links))
	for _, link := range links {
		if link.BoundingBox.Empty() {
			continue
		}
		text := link.DOMText
		if text == "" {
			text = link.Content
		}
		regions = append(regions, element.LinkRegion{
			Text:        text,
			Href:        link.Href,
			Selector:    link.Selector,
			BoundingBox: link.BoundingBox,
		})
	}
	return regions
}

// processClickables converts each clickable candidate, extracts link regions
// from its own text, and enriches it from the best matching DOM element.
func (e *Engine) processClickables(clickables []element.Clickable, domElements []*element.Element) []*element.Element {
	var out []*element.Element
	for _, c := range clickables {
		el := element.FromClickable(c)
		if el.BoundingBox.Empty() && el.Content == "" {
			e.cfg.Logger.Debug("fuse: skipping degenerate clickable", "tag", c.Tag)
			continue
		}

		el.ProcessLinkRegions(el.Content, domElements)

		if match := e.findMatchingDOM(el, domElements); match != nil {
			el.CopyDOMProperties(match)
		}
		out = append(out, el)
	}
	return out
}

// processOCRLines converts OCR lines, greedily absorbing subsequent lines
// that belong to the same visual text block before DOM matching. Content is
// concatenated with single spaces, word lists are appended, and geometry is
// the running union of all absorbed lines.
func (e *Engine) processOCRLines(lines []element.OCRLine, domElements []*element.Element, scaleX, scaleY float64) []*element.Element {
	var out []*element.Element
	processed := make(map[int]bool, len(lines))

	for i, line := range lines {
		if processed[i] {
			continue
		}

		el, err := element.FromOCRLine(line, scaleX, scaleY)
		if err != nil {
			e.cfg.Logger.Warn("fuse: skipping OCR line", "content", line.Content, "error", err)
			processed[i] = true
			continue
		}

		contents := make([]string, 0, 2)
		if el.Content != "" {
			contents = append(contents, el.Content)
		}
		words := append([]element.Word(nil), el.Words...)

		for j := i + 1; j < len(lines); j++ {
			if processed[j] {
				continue
			}
			next, err := element.FromOCRLine(lines[j], scaleX, scaleY)
			if err != nil {
				e.cfg.Logger.Warn("fuse: skipping OCR line", "content", lines[j].Content, "error", err)
				continue
			}
			if !e.shouldMergeFragments(el, next) {
				break
			}
			if next.Content != "" {
				contents = append(contents, next.Content)
			}
			words = append(words, next.Words...)
			el.BoundingBox = el.BoundingBox.Union(next.BoundingBox)
			processed[j] = true
		}

		if len(contents) > 1 {
			el.Content = strings.Join(contents, " ")
			el.OCRText = el.Content
			el.Words = words
		}

		el.ProcessLinkRegions(el.Content, domElements)

		if match := e.findMatchingDOM(el, domElements); match != nil {
			el.CopyDOMProperties(match)
		}
		out = append(out, el)
		processed[i] = true
	}
	return out
}
