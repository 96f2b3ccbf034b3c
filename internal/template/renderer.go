package template

import (
	"regexp"
	"strings"

	"github.com/praxislegal/praxis/internal/domain"
)

// Rendered content size limits.
const (
	MaxHTMLLength = 1_000_000
	MaxTextLength = 500_000
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)
	sectionPattern     = regexp.MustCompile(`(?s)\{\{#\s*([a-zA-Z0-9_.]+)\s*\}\}(.*?)\{\{/\s*[a-zA-Z0-9_.]+\s*\}\}`)
)

// Render substitutes {{variable}} placeholders in tmpl with values from
// vars. Conditional sections {{#key}}...{{/key}} are resolved first: the
// block is dropped when vars[key] is empty or absent, otherwise the block
// markers are removed and the inner content rendered. Sections do not
// nest. Plain placeholders with no matching variable become the empty
// string, so rendering is idempotent: output containing no placeholders
// renders to itself.
func Render(tmpl string, vars map[string]string) string {
	out := sectionPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		sub := sectionPattern.FindStringSubmatch(match)
		if vars[sub[1]] == "" {
			return ""
		}
		return sub[2]
	})

	return placeholderPattern.ReplaceAllStringFunc(out, func(match string) string {
		sub := placeholderPattern.FindStringSubmatch(match)
		return vars[sub[1]]
	})
}

// PlainText strips HTML down to a readable plain-text rendition: line
// breaks for block-level closers, tags removed, entities decoded, blank
// lines dropped.
func PlainText(html string) string {
	text := html

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

// PlainTextPreview strips tags and truncates to at most n characters,
// appending an ellipsis when content was cut. Truncation happens on
// rune boundaries so multi-byte text stays valid UTF-8.
func PlainTextPreview(html string, n int) string {
	text := strings.Join(strings.Fields(PlainText(html)), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// ValidateContentSize checks rendered bodies against the storage limits.
func ValidateContentSize(html, text string) []domain.FieldError {
	var errs []domain.FieldError
	if len(html) > MaxHTMLLength {
		errs = append(errs, domain.FieldError{
			Field:   "html",
			Message: "html content exceeds the 1,000,000 character limit",
			Code:    domain.CodeSizeLimitExceeded,
		})
	}
	if len(text) > MaxTextLength {
		errs = append(errs, domain.FieldError{
			Field:   "text",
			Message: "text content exceeds the 500,000 character limit",
			Code:    domain.CodeSizeLimitExceeded,
		})
	}
	return errs
}
