package element

import (
	"regexp"
	"strings"
)

var (
	selectorStripRe = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeText collapses tabs, blank lines, and per-line whitespace into a
// single space-joined string.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\t", " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, " ")
}

// CleanContent prepares text for embedding in an attribute selector: strips
// everything but word characters, spaces, and hyphens, collapses whitespace,
// and caps the result at 50 characters.
func CleanContent(content string) string {
	if content == "" {
		return ""
	}
	cleaned := selectorStripRe.ReplaceAllString(content, "")
	cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	if len(cleaned) > 50 {
		cleaned = cleaned[:50]
	}
	return cleaned
}
