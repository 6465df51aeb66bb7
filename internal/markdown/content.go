package markdown

import (
	"errors"
	"strings"
)

// ErrMalformedContent means an HTML document came back where markdown was
// expected, typically a host answering every unknown path with its index page.
var ErrMalformedContent = errors.New("markdown: received an HTML document instead of markdown")

// StripFrontmatter removes a leading ----delimited header block.
func StripFrontmatter(src string) string {
	src = strings.TrimPrefix(src, "\ufeff")
	lines := strings.Split(src, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return src
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	return src
}

// IsHTMLDocument sniffs for a full HTML document.
func IsHTMLDocument(src string) bool {
	head := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(src, "\ufeff")))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
