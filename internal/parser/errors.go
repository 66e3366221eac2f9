package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParseError is a per-line or structural failure inside one source file
type ParseError struct {
	Source string // File the error belongs to
	Line   int    // 1-based line, or -1 when no single line is to blame
	Ref    int    // Line of the annotation that set up the failure, 0 if none
	Msg    string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s, %s", e.Msg, filepath.ToSlash(e.Source))
	if e.Line >= 0 {
		msg += fmt.Sprintf(" at %d", e.Line)
	}
	if e.Ref > 0 && e.Ref != e.Line {
		msg += fmt.Sprintf(" (see line %d)", e.Ref)
	}
	return msg
}

var diagnosticReplacer = strings.NewReplacer(
	"\r", "",
	"\n", "",
	NewlineMarker, "",
	`"`, "'",
	`\`, "",
)

// Diagnostic renders an error as an inline, escaped marker ending in an HTML line break
func Diagnostic(err error) string {
	return escapeHTML(diagnosticReplacer.Replace(err.Error())) + "<br/>" + NewlineMarker
}
