package parser

import (
	"regexp"
	"strings"
)

// Document is the parsed content of one input file, ready to render
type Document struct {
	Source  string
	Scopes  []string           // Scope ids in first-encountered order
	Content map[string][]Entry // Entries per scope, in insertion order
	Links   []Link
	Styles  []StyleRule // @style directives, applied before rendering
}

// MarkupDocument wraps an existing markdown file; its lines are only escaped
func MarkupDocument(source string, lines []string) *Document {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, Literal(protect(escapeHTML(strings.TrimSuffix(line, "\r")))+NewlineMarker))
	}
	return &Document{
		Source:  source,
		Scopes:  []string{RootScope},
		Content: map[string][]Entry{RootScope: entries},
	}
}

// DiagnosticDocument stands in for an input that could not be read
func DiagnosticDocument(source string, err error) *Document {
	return &Document{
		Source:  source,
		Scopes:  []string{RootScope},
		Content: map[string][]Entry{RootScope: {Literal(Diagnostic(err))}},
	}
}

// Render applies the document's style rules and flattens its scopes into
// text that still carries NewlineMarker placeholders.
func (d *Document) Render(styles *StyleRegistry) string {
	styles.Apply(d.Styles)

	var b strings.Builder
	for _, scope := range d.Scopes {
		for _, entry := range d.Content[scope] {
			switch entry.Kind {
			case EntryLiteral:
				b.WriteString(entry.Value)
			case EntryTOC:
				d.renderTOC(&b)
			case EntryHeader:
				if entry.Anchor != "" {
					b.WriteString(`<a id="` + entry.Anchor + `"></a>` + NewlineMarker)
				}
				b.WriteString(styles.Render(entry.Token, protect(entry.Value)) + " " + NewlineMarker)
			}
		}
	}
	return b.String()
}

func (d *Document) renderTOC(b *strings.Builder) {
	lines, err := renderTOC(d.Source, d.Links)
	for _, line := range lines {
		b.WriteString(protect(line) + NewlineMarker)
	}
	if err != nil {
		b.WriteString(Diagnostic(err))
	}
}

var placeholderRe = regexp.MustCompile(`\\(.)`)

// Finalize turns rendered text into plain markdown: NewlineMarker becomes a
// line break and any other escaped character stands for itself.
func Finalize(rendered string) string {
	return placeholderRe.ReplaceAllStringFunc(rendered, func(m string) string {
		if m == NewlineMarker {
			return "\n"
		}
		return m[1:]
	})
}
