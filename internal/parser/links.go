package parser

import (
	"fmt"
	"strings"
)

// LinkKind tags the variant held by a Link
type LinkKind int

const (
	LinkDeclaration LinkKind = iota // A named declaration shown in the TOC
	LinkDepthOpen                   // A scope opened, TOC indents one level
	LinkDepthClose                  // A scope closed, TOC dedents one level
)

// Link is one event in the ordered declaration log
type Link struct {
	Kind    LinkKind
	Command string
	Text    string
	Line    int
}

// isScopeCommand reports whether a command opens a scope
func isScopeCommand(command string) bool {
	switch command {
	case "scope", "class", "namespace", "struct":
		return true
	}
	return false
}

// renderTOC walks the log and returns one bullet per declaration.
// Lines rendered before a structural error are kept.
func renderTOC(source string, links []Link) ([]string, error) {
	var lines []string
	var opened []int // lines of the scopes still open
	depth := 0
	for _, link := range links {
		switch link.Kind {
		case LinkDepthOpen:
			depth++
			opened = append(opened, link.Line)
			continue
		case LinkDepthClose:
			depth--
			if len(opened) > 0 {
				opened = opened[:len(opened)-1]
			}
			if depth < 0 {
				return lines, &ParseError{Source: source, Line: link.Line, Msg: "Negative scope"}
			}
			continue
		}

		bullet := "*"
		if depth > 0 {
			bullet = strings.Repeat(" ", 2*depth) + "*"
		}
		label := " "
		if isScopeCommand(link.Command) {
			label = " " + link.Command + " "
		}
		lines = append(lines, bullet+" ["+label+link.Text+" ](#"+Slug(link.Text)+")")
	}

	if depth != 0 {
		return lines, &ParseError{Source: source, Line: -1, Ref: opened[len(opened)-1], Msg: fmt.Sprintf("Unbalanced scope (0 != %d)", depth)}
	}
	return lines, nil
}
