package element

import (
	"fmt"
	"regexp"
	"strings"
)

// Selector synthesis: when a source record arrives without a selector, one
// is generated through an ordered fallback chain. Tag-specific rules run
// first, then role heuristics for clickable elements, then OCR text-shape
// heuristics, and finally a position-based selector that always succeeds.

var currencyRe = regexp.MustCompile(`^[£$€]?\d+([.,]\d{2})?$`)

// EnsureSelector populates the selector if the source did not supply one.
func (e *Element) EnsureSelector() {
	if e.Selector == "" {
		e.Selector = e.generateSelector()
	}
}

func (e *Element) generateSelector() string {
	if s := e.tagSpecificSelector(); s != "" {
		return s
	}
	if e.Type == SourceClickable {
		if s := e.roleBasedSelector(); s != "" {
			return s
		}
	}
	if e.Type == SourceOCR {
		if s := e.ocrSelector(); s != "" {
			return s
		}
	}
	return e.positionBasedSelector()
}

func (e *Element) tagSpecificSelector() string {
	if e.Tag == "" {
		return ""
	}
	clean := CleanContent(e.Content)

	switch strings.ToLower(e.Tag) {
	case "select":
		if strings.Contains(strings.ToLower(e.Content), "quantity") {
			return "#quantity"
		}
		return fmt.Sprintf(`select[aria-label="%s"]`, clean)

	case "input":
		switch e.Content {
		case "Buy Now":
			return `input[name="submit.buy-now"]`
		case "4+":
			return `input[aria-label="4 Stars & Up"]`
		}
		return fmt.Sprintf(`input[aria-label="%s"]`, clean)

	case "button":
		return fmt.Sprintf(`button[aria-label="%s"]`, clean)

	case "a":
		if e.Href != "" {
			// Query parameters churn between page loads; drop them.
			hrefPart, _, _ := strings.Cut(e.Href, "?")
			return fmt.Sprintf(`a[href*="%s"][data-content="%s"]`, hrefPart, clean)
		}
	}
	return ""
}

func (e *Element) roleBasedSelector() string {
	clean := CleanContent(e.Content)

	if e.HoverState != nil {
		return fmt.Sprintf(`[role="button"][data-content="%s"]`, clean)
	}

	lower := strings.ToLower(e.Content)
	switch {
	case strings.Contains(lower, "menu"):
		return fmt.Sprintf(`[role="menu"][data-content="%s"]`, clean)
	case strings.Contains(lower, "tab"):
		return fmt.Sprintf(`[role="tab"][data-content="%s"]`, clean)
	}
	return ""
}

func (e *Element) ocrSelector() string {
	clean := CleanContent(e.Content)

	if e.OCRText != "" {
		if currencyRe.MatchString(e.OCRText) {
			return fmt.Sprintf(`[data-price="%s"]`, clean)
		}
		if len(e.OCRText) < 30 {
			return fmt.Sprintf(`[aria-label="%s"]`, clean)
		}
		return fmt.Sprintf(`[data-text="%s"]`, clean)
	}
	return fmt.Sprintf(`[data-ocr="%s"]`, clean)
}

func (e *Element) positionBasedSelector() string {
	return fmt.Sprintf(`[data-testid="%s-%g-%g"]`, e.Type, e.BoundingBox.Left, e.BoundingBox.Top)
}
