package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/atotto/clipboard"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
)

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using the platform clipboard
type systemClipboard struct{}

// Copy copies text to the system clipboard
func (systemClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// SystemClipboard returns the platform clipboard
func SystemClipboard() Clipboard {
	return systemClipboard{}
}

// ============================================================================
// Output Modes
// ============================================================================

// Mode represents where the generated document goes
type Mode string

const (
	ModePrint Mode = "print"
	ModeFile  Mode = "file"
	ModeCopy  Mode = "copy"
	ModeNull  Mode = "null"
)

// NullTarget as an output path discards the document
const NullTarget = "null"

// ModeFor picks the mode for an output target and the --copy flag
func ModeFor(target string, copyToClipboard bool) Mode {
	switch {
	case copyToClipboard:
		return ModeCopy
	case target == NullTarget:
		return ModeNull
	case target == "":
		return ModePrint
	default:
		return ModeFile
	}
}

// ============================================================================
// Sink
// ============================================================================

// Sink writes finished documents
type Sink struct {
	fs        afero.Fs
	stdout    io.Writer
	clipboard Clipboard
}

// NewSink creates a sink writing files through fs
func NewSink(fs afero.Fs) *Sink {
	return &Sink{
		fs:        fs,
		stdout:    os.Stdout,
		clipboard: systemClipboard{},
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (s *Sink) WithClipboard(c Clipboard) *Sink {
	s.clipboard = c
	return s
}

// WithStdout sets the writer used by ModePrint
func (s *Sink) WithStdout(w io.Writer) *Sink {
	s.stdout = w
	return s
}

// Clipboard returns the clipboard the sink copies to
func (s *Sink) Clipboard() Clipboard {
	return s.clipboard
}

// Write delivers text according to mode; target is the file for ModeFile
func (s *Sink) Write(mode Mode, target, text string) error {
	switch mode {
	case ModeNull:
		return nil
	case ModeCopy:
		if err := s.clipboard.Copy(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		return nil
	case ModeFile:
		if err := afero.WriteFile(s.fs, target, []byte(text), 0o644); err != nil {
			return fmt.Errorf("cannot open output: %w", err)
		}
		return nil
	default: // print
		_, err := io.WriteString(s.stdout, text)
		return err
	}
}

// Check compares text with the current content of target and returns a
// unified diff, empty when the file is up to date. A missing file counts as empty.
func (s *Sink) Check(target, text string) (string, error) {
	current, err := afero.ReadFile(s.fs, target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", target, err)
	}
	if string(current) == text {
		return "", nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(text),
		FromFile: target,
		ToFile:   target + " (generated)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
