package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ttyDevice is the controlling terminal used when stdout is captured
var ttyDevice = "/dev/tty"

// Interactive reports whether stdout is a terminal a preview can draw on
func Interactive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// HasTTY reports whether a preview can be shown, on stdout or on the
// controlling terminal when stdout is piped
func HasTTY() bool {
	if Interactive() {
		return true
	}
	f, err := os.OpenFile(ttyDevice, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// getTTY returns file handles for TUI input/output
// When stdout is captured, the TUI goes to /dev/tty so the pipe stays clean
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	if Interactive() {
		return os.Stdin, os.Stdout, func() {}
	}

	var closers []func()

	out, err := os.OpenFile(ttyDevice, os.O_WRONLY, 0)
	if err != nil {
		out = os.Stderr // Last resort fallback
	} else {
		closers = append(closers, func() { out.Close() })
	}

	in, err = os.OpenFile(ttyDevice, os.O_RDONLY, 0)
	if err != nil {
		in = os.Stdin
	} else {
		closers = append(closers, func() { in.Close() })
	}

	// Tell lipgloss to use the TTY for color detection
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

	return in, out, func() {
		for _, c := range closers {
			c()
		}
	}
}
