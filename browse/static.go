package browse

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/fuse"
)

// Static parsing gives a degraded but useful snapshot when no browser is
// available: real structure, text, selectors, and clickable candidates, with
// synthetic geometry. Text-bearing nodes are stacked vertically in document
// order so band queries and fragment merging still behave sensibly.

const (
	staticRowHeight = 20.0
	staticRowGap    = 4.0
	staticCharWidth = 8.0
	staticMaxWidth  = 1200.0
)

var staticSkipTags = map[string]bool{
	"script": true, "style": true, "head": true, "meta": true,
	"link": true, "title": true, "noscript": true, "template": true,
}

var staticClickableTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true, "textarea": true,
}

// ParseStatic reads an HTML document and produces fusion sources without a
// browser. Geometry is synthetic; scale factors are 1:1 because there is no
// screenshot to reconcile against.
func ParseStatic(r io.Reader) (fuse.Sources, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return fuse.Sources{}, fmt.Errorf("browse: parse html: %w", err)
	}

	w := &staticWalker{}
	body := findBody(doc)
	if body == nil {
		return fuse.Sources{DOM: &element.DOMTree{Type: "root"}}, nil
	}

	var children []element.DOMNode
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if node := w.walk(c, "body"); node != nil {
			children = append(children, *node)
		}
	}

	return fuse.Sources{
		DOM:        &element.DOMTree{Type: "root", Children: children},
		Clickables: w.clickables,
		ScaleX:     1,
		ScaleY:     1,
	}, nil
}

type staticWalker struct {
	y          float64
	clickables []element.Clickable
}

func (w *staticWalker) walk(n *html.Node, parentPath string) *element.DOMNode {
	if n.Type != html.ElementNode || staticSkipTags[n.Data] {
		return nil
	}

	tag := n.Data
	selector := childSelector(n, parentPath)
	text := directText(n)

	props := &element.DOMProperties{
		TagName:  tag,
		Text:     text,
		Href:     attr(n, "href"),
		Src:      attr(n, "src"),
		Selector: selector,
		Visibility: element.Visibility{
			Display:    "block",
			Visibility: "visible",
			Opacity:    "1",
		},
	}
	if text != "" {
		width := min(staticCharWidth*float64(len(text)), staticMaxWidth)
		props.Position = &element.Position{
			X:      0,
			Y:      w.y,
			Width:  width,
			Height: staticRowHeight,
		}
		w.y += staticRowHeight + staticRowGap
	}

	if staticClickableTags[tag] && props.Position != nil {
		w.clickables = append(w.clickables, element.Clickable{
			Tag:  tag,
			Text: text,
			Rect: element.Rect{
				Left:   props.Position.X,
				Top:    props.Position.Y,
				Width:  props.Position.Width,
				Height: props.Position.Height,
			},
			Href:     props.Href,
			Src:      props.Src,
			Selector: selector,
		})
	}

	var children []element.DOMNode
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if node := w.walk(c, selector); node != nil {
			children = append(children, *node)
		}
	}

	if text == "" && len(children) == 0 {
		return nil
	}
	return &element.DOMNode{Properties: props, Children: children}
}

// childSelector builds the same selector shape the live walk produces: an id
// short-circuits the path, otherwise tag plus :nth-child among same-tag
// siblings.
func childSelector(n *html.Node, parentPath string) string {
	if id := attr(n, "id"); id != "" {
		return "#" + id
	}

	sel := n.Data
	total, index := 0, 0
	if n.Parent != nil {
		for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != n.Data {
				continue
			}
			total++
			if c == n {
				index = total
			}
		}
	}
	if total > 1 {
		sel = fmt.Sprintf("%s:nth-child(%d)", sel, index)
	}
	if parentPath == "" {
		return sel
	}
	return parentPath + " > " + sel
}

// directText mirrors the live walk's text extraction: immediate text nodes
// first, then the tag-specific and ARIA fallbacks.
func directText(n *html.Node) string {
	if n.Data == "input" {
		if v := attr(n, "placeholder"); v != "" {
			return v
		}
		return attr(n, "value")
	}
	if n.Data == "img" {
		if v := attr(n, "alt"); v != "" {
			return v
		}
		return attr(n, "title")
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if trimmed := strings.TrimSpace(c.Data); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if v := attr(n, "aria-label"); v != "" {
		return v
	}
	return attr(n, "title")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}
