package maker

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"

	"github.com/gubarz/mdmaker/internal/parser"
)

// maxLineSize bounds a single input line; longer lines end the file with a diagnostic
const maxLineSize = 1024 * 1024

// lineTooLong is reported at the first line over maxLineSize
var lineTooLong = fmt.Sprintf("Line longer than %d bytes", maxLineSize)

// inputKind tells how an input file is turned into a document
type inputKind int

const (
	sourceInput inputKind = iota // Scanned for doc comments
	markupInput                  // Markdown passed through escaped
)

type input struct {
	path string
	kind inputKind
}

// Option configures a Maker
type Option func(*Maker)

// WithFs sets the filesystem inputs are read from
func WithFs(fs afero.Fs) Option {
	return func(m *Maker) { m.fs = fs }
}

// WithStyles sets the base style table; each run renders with a copy of it
func WithStyles(styles *parser.StyleRegistry) Option {
	return func(m *Maker) { m.styles = styles }
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(m *Maker) { m.log = log }
}

// WithWorkers caps how many files are parsed at once (0 = GOMAXPROCS)
func WithWorkers(n int) Option {
	return func(m *Maker) { m.workers = n }
}

// WithClock sets the time source for @date
func WithClock(now func() time.Time) Option {
	return func(m *Maker) { m.now = now }
}

// WithDateLayout sets the layout for @date
func WithDateLayout(layout string) Option {
	return func(m *Maker) { m.dateLayout = layout }
}

// WithFooter sets the line appended after all inputs ("" for none)
func WithFooter(footer string) Option {
	return func(m *Maker) { m.footer = footer }
}

// Maker joins the documentation of many input files into one markdown document
type Maker struct {
	fs         afero.Fs
	styles     *parser.StyleRegistry
	log        zerolog.Logger
	workers    int
	now        func() time.Time
	dateLayout string
	footer     string

	inputs  []input
	pending atomic.Int64 // counts up from -len(inputs) to 0
}

// New creates a Maker reading from the OS filesystem by default
func New(opts ...Option) *Maker {
	m := &Maker{
		fs:     afero.NewOsFs(),
		styles: parser.NewStyleRegistry(),
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers an input, choosing markup or source handling by extension
func (m *Maker) Add(path string) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		m.AddMarkupFile(path)
		return
	}
	m.AddSourceFile(path)
}

// AddSourceFile registers a file to scan for doc comments
func (m *Maker) AddSourceFile(path string) {
	m.inputs = append(m.inputs, input{path: path, kind: sourceInput})
}

// AddMarkupFile registers a markdown file to include as-is
func (m *Maker) AddMarkupFile(path string) {
	m.inputs = append(m.inputs, input{path: path, kind: markupInput})
}

// Inputs returns the registered paths in input order
func (m *Maker) Inputs() []string {
	paths := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		paths[i] = in.path
	}
	return paths
}

// HasInput reports whether any input was registered
func (m *Maker) HasInput() bool {
	return len(m.inputs) > 0
}

// Make parses every input and returns the joined markdown. Files are parsed
// concurrently; output follows input order. Failures are embedded inline.
func (m *Maker) Make() string {
	m.pending.Store(-int64(len(m.inputs)))

	mapper := iter.Mapper[input, *parser.Document]{MaxGoroutines: m.workers}
	docs := mapper.Map(m.inputs, func(in *input) *parser.Document {
		doc := m.load(*in)
		m.completed(in.path)
		return doc
	})

	styles := m.styles.Clone()
	var b strings.Builder
	for _, doc := range docs {
		b.WriteString(doc.Render(styles))
	}

	text := parser.Finalize(b.String())
	if m.footer != "" {
		text += m.footer + "\n"
	}
	return text
}

// completed counts a finished file and logs once all are done
func (m *Maker) completed(path string) {
	remaining := m.pending.Add(1)
	m.log.Debug().Str("file", path).Int64("remaining", -remaining).Msg("file parsed")
	if remaining == 0 {
		m.log.Info().Int("files", len(m.inputs)).Msg("all files parsed")
	}
}

// load turns one input into a document, never failing the batch
func (m *Maker) load(in input) *parser.Document {
	log := m.log.With().Str("file", in.path).Logger()

	lines, err := m.readLines(in.path)
	truncated := errors.Is(err, bufio.ErrTooLong)
	if err != nil && !truncated {
		log.Error().Err(err).Msg("cannot open file")
		kind := "source"
		if in.kind == markupInput {
			kind = "markup"
		}
		return parser.DiagnosticDocument(in.path, fmt.Errorf("cannot load %s file:%s", kind, in.path))
	}

	if in.kind == markupInput {
		doc := parser.MarkupDocument(in.path, lines)
		if truncated {
			log.Warn().Int("line", len(lines)+1).Msg("line too long, rest of file skipped")
			tail := &parser.ParseError{Source: in.path, Line: len(lines) + 1, Msg: lineTooLong}
			doc.Content[parser.RootScope] = append(doc.Content[parser.RootScope], parser.Literal(parser.Diagnostic(tail)))
		}
		return doc
	}

	p := parser.NewSourceParser(in.path,
		parser.WithLogger(log),
		parser.WithClock(m.now),
		parser.WithDateLayout(m.dateLayout),
	)
	for _, line := range lines {
		if err := p.ParseLine(line + parser.NewlineMarker); err != nil {
			log.Warn().Int("line", p.Line()).Msg("parse error, rest of file skipped")
			return p.Complete()
		}
	}
	if truncated {
		log.Warn().Int("line", p.Line()+1).Msg("line too long, rest of file skipped")
		_ = p.Abort(lineTooLong)
	}
	return p.Complete()
}

// readLines returns the lines of path. On bufio.ErrTooLong the lines before
// the long one are returned with the error.
func (m *Maker) readLines(path string) ([]string, error) {
	file, err := m.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return lines, err
		}
		return nil, err
	}
	return lines, nil
}
