package parser

import (
	"regexp"
	"strings"
)

var (
	escapedEntityRe = regexp.MustCompile(`&(?:lt|gt|amp|quot|#39);`)
	angleGroupRe    = regexp.MustCompile(`<[^<>]*>`)
	nonWordRe       = regexp.MustCompile(`[^\w\s-]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Slug turns header text into the anchor id used by both headers and TOC links
func Slug(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = escapedEntityRe.ReplaceAllString(s, "")
	s = angleGroupRe.ReplaceAllString(s, "")
	s = nonWordRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return whitespaceRe.ReplaceAllString(s, "-")
}

var htmlReplacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeHTML escapes markup characters the same way for prose and signatures
func escapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}
