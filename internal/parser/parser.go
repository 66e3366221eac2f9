package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	docCommentStart = "/**"
	blockCommentEnd = "*/"
	backtickFence   = "```"
	tildeFence      = "~~~"
)

var (
	annotationRe = regexp.MustCompile(`^\s*\*\s*@([a-z]+)\s*(.*)$`)
	decorationRe = regexp.MustCompile(`^\s*\* ?`)

	// Declarations are matched after nested <...> and (...) groups are collapsed
	angleCollapseRe = regexp.MustCompile(`<[^<>]*>`)
	parenCollapseRe = regexp.MustCompile(`\([^()]*\)`)
	declarationRe   = regexp.MustCompile(`^\s*(?:[\w<>*&:,]+\s+)*[*&]*(?:\w+::)*([A-Za-z_]\w*)\s*\(`)
	qualifierRe     = regexp.MustCompile(`^\s*(?:[A-Za-z_]\w*|\{)`)
	exportMacroRe   = regexp.MustCompile(`^\s*\w+_EXPORT\s+`)
)

// DefaultDateLayout formats the value injected by @date
const DefaultDateLayout = "Mon Jan _2 15:04:05 2006"

type state int

const (
	stateOutside state = iota
	stateBlock
	stateBacktickExample
	stateTildeExample
)

// pendingSignature is a function header waiting for its declaration line
type pendingSignature struct {
	ref  entryRef
	name string
	line int // Line of the @function annotation
}

// Option configures a SourceParser
type Option func(*SourceParser)

// WithLogger sets the logger used for warnings and tracing
func WithLogger(log zerolog.Logger) Option {
	return func(p *SourceParser) { p.log = log }
}

// WithClock sets the time source used by @date
func WithClock(now func() time.Time) Option {
	return func(p *SourceParser) { p.now = now }
}

// WithDateLayout sets the time layout used by @date
func WithDateLayout(layout string) Option {
	return func(p *SourceParser) {
		if layout != "" {
			p.dateLayout = layout
		}
	}
}

// SourceParser is the per-file line state machine. It is not safe for
// concurrent use; one instance handles exactly one source file.
type SourceParser struct {
	source     string
	log        zerolog.Logger
	now        func() time.Time
	dateLayout string

	state   state
	scopes  *scopeStore
	links   []Link
	styles  []StyleRule
	pending *pendingSignature
	line    int
	failed  bool
}

// NewSourceParser creates a parser for the named source file
func NewSourceParser(source string, opts ...Option) *SourceParser {
	p := &SourceParser{
		source:     source,
		log:        zerolog.Nop(),
		now:        time.Now,
		dateLayout: DefaultDateLayout,
		scopes:     newScopeStore(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Line returns the number of lines consumed so far
func (p *SourceParser) Line() int {
	return p.line
}

// ParseLine consumes the next line of the file. A returned error has already
// been recorded inline; the caller should stop feeding lines.
func (p *SourceParser) ParseLine(line string) error {
	p.line++
	body := strings.TrimSuffix(strings.TrimSuffix(line, NewlineMarker), "\r")

	if p.state == stateOutside {
		return p.parseOutside(body)
	}
	return p.parseInside(body)
}

func (p *SourceParser) parseOutside(body string) error {
	if p.pending != nil {
		if err := p.resolveSignature(body); err != nil {
			return err
		}
	}

	idx := strings.Index(body, docCommentStart)
	if idx < 0 {
		return nil
	}
	// "/**/" closes on its own second star
	if !strings.Contains(body[idx+len(docCommentStart)-1:], blockCommentEnd) {
		p.state = stateBlock
	}
	if p.pending != nil {
		return p.fail(fmt.Sprintf("function not found %q", p.pending.name), p.pending.line)
	}
	return nil
}

func (p *SourceParser) parseInside(body string) error {
	if strings.Contains(body, blockCommentEnd) {
		p.state = stateOutside
		return nil
	}

	if m := annotationRe.FindStringSubmatch(body); m != nil {
		return p.interpret(m[1], Decode(m[2]))
	}

	switch {
	case p.state != stateTildeExample && strings.Contains(body, backtickFence):
		p.toggleFence(stateBacktickExample, backtickFence)
	case p.state != stateBacktickExample && strings.Contains(body, tildeFence):
		p.toggleFence(stateTildeExample, tildeFence)
	case p.state == stateBlock:
		text := escapeHTML(Decode(stripDecoration(body)))
		p.scopes.append(Literal(protect(text) + NewlineMarker))
	default:
		text := fenceEscaper.Replace(Decode(stripDecoration(body)))
		p.scopes.append(Literal(text + "  " + NewlineMarker))
	}
	return nil
}

// toggleFence enters or leaves a fenced example and emits the fence marker
func (p *SourceParser) toggleFence(fenced state, marker string) {
	if p.state == stateBlock {
		p.state = fenced
	} else {
		p.state = stateBlock
	}
	p.scopes.append(Literal(marker + NewlineMarker))
}

// resolveSignature completes the pending function header when body declares it
func (p *SourceParser) resolveSignature(body string) error {
	m := declarationRe.FindStringSubmatch(collapseGroups(body))
	if m == nil || m[1] != p.pending.name {
		return nil
	}

	tail, ok := signatureTail(body, p.pending.name)
	if !ok {
		return p.fail("Cannot understand as a function:"+body, p.pending.line)
	}
	signature := strings.TrimSpace(exportMacroRe.ReplaceAllString(strings.TrimSpace(tail), ""))
	value := escapeHTML(signature)

	entry := p.scopes.at(p.pending.ref)
	if entry == nil {
		return p.fail("Lost function header:"+p.pending.name, p.pending.line)
	}
	*entry = Header(entry.Token, value, Slug(value))
	p.links = append(p.links, Link{Kind: LinkDeclaration, Command: entry.Token, Text: value, Line: p.line})
	p.log.Debug().Str("source", p.source).Int("line", p.line).Str("signature", signature).Msg("function resolved")
	p.pending = nil
	return nil
}

// signatureTail returns body up to the parenthesis closing name's parameter
// list, plus one trailing qualifier word or "{"
func signatureTail(body, name string) (string, bool) {
	open := parameterList(body, name)
	if open < 0 {
		return "", false
	}

	depth := 0
	for i := open; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end := i + 1
				if q := qualifierRe.FindStringIndex(body[end:]); q != nil {
					end += q[1]
				}
				return body[:end], true
			}
		}
	}
	return "", false
}

// parameterList finds the "(" opening name's parameters outside any
// parenthesized group, or -1
func parameterList(body, name string) int {
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
			continue
		case ')':
			depth--
			continue
		}
		if depth != 0 || !strings.HasPrefix(body[i:], name) || (i > 0 && isWordByte(body[i-1])) {
			continue
		}
		rest := strings.TrimLeft(body[i+len(name):], " \t")
		if strings.HasPrefix(rest, "(") {
			return len(body) - len(rest)
		}
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// fail records a diagnostic in the current scope and returns it as an error.
// ref is the line of the annotation the failure traces back to.
func (p *SourceParser) fail(msg string, ref int) error {
	err := &ParseError{Source: p.source, Line: p.line, Ref: ref, Msg: msg}
	p.failed = true
	p.scopes.append(Literal(Diagnostic(err)))
	p.log.Warn().Err(err).Msg("parse failure")
	return err
}

// Abort records a diagnostic for the line after the last one consumed, for
// input that could not be read as a line. The file is treated as failed.
func (p *SourceParser) Abort(msg string) error {
	p.line++
	return p.fail(msg, 0)
}

// Complete finalizes the file and hands its content over for rendering.
// An unresolved function is reported only when the whole file was read.
func (p *SourceParser) Complete() *Document {
	if p.pending != nil && !p.failed {
		_ = p.fail(fmt.Sprintf("function not found %q", p.pending.name), p.pending.line)
		p.pending = nil
	}
	if depth := p.scopes.depth(); depth != 0 {
		p.log.Debug().Str("source", p.source).Int("depth", depth).Msg("scopes left open at end of file")
	}
	return &Document{
		Source:  p.source,
		Scopes:  p.scopes.order,
		Content: p.scopes.content,
		Links:   p.links,
		Styles:  p.styles,
	}
}

const (
	angleToken = "\x02"
	parenToken = "\x01"
)

var groupRestorer = strings.NewReplacer(angleToken, "<>", parenToken, "()")

// collapseGroups reduces nested generics and parameter lists to empty pairs,
// innermost first
func collapseGroups(s string) string {
	for {
		collapsed := parenCollapseRe.ReplaceAllString(angleCollapseRe.ReplaceAllString(s, angleToken), parenToken)
		if collapsed == s {
			return groupRestorer.Replace(collapsed)
		}
		s = collapsed
	}
}

// stripDecoration removes a single leading "*" comment decoration
func stripDecoration(s string) string {
	if loc := decorationRe.FindStringIndex(s); loc != nil {
		return s[loc[1]:]
	}
	return s
}

var (
	backslashEscaper = strings.NewReplacer(`\`, `\\`)
	fenceEscaper     = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// protect escapes backslashes so Finalize leaves them intact
func protect(s string) string {
	return backslashEscaper.Replace(s)
}
