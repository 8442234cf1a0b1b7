package search

import (
	"strings"

	"github.com/pagefuse/pagefuse/element"
)

// EmbeddingText assembles the deterministic embedding-input string for an
// element: primary content first, then derived annotations, then type/role
// and interactivity phrases. Case is preserved.
func EmbeddingText(el *element.Element) string {
	var parts []string

	if el.Content != "" {
		parts = append(parts, el.Content)
	}

	if el.ImageCaption != "" {
		parts = append(parts, "image showing "+el.ImageCaption)
	}

	if el.HoverState != nil && el.HoverState.TextAfter != "" && el.HoverState.TextAfter != el.Content {
		parts = append(parts, "reveals "+el.HoverState.TextAfter+" on hover")
	}

	if el.Type == element.SourceClickable {
		switch el.Tag {
		case "button", "input":
			parts = append(parts, "button")
			if el.Content != "" {
				parts = append(parts, "clickable button "+el.Content)
			}
		case "a":
			parts = append(parts, "link")
			if el.Content != "" {
				parts = append(parts, "clickable link "+el.Content)
			}
			if el.Href != "" {
				href := strings.NewReplacer("-", " ", "_", " ").Replace(el.Href)
				parts = append(parts, "links to "+href)
			}
		}
	}

	if el.HoverState.RevealsPointer() {
		parts = append(parts, "interactive clickable element")
	}

	if el.Visibility != nil && el.Visibility.Display != "none" && el.Visibility.Display != "hidden" {
		parts = append(parts, "visible element on page")
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
