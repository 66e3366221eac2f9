package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/gubarz/mdmaker/internal/output"
)

// chromeHeight is the title line plus the help line
const chromeHeight = 2

// AutoStyle picks a glamour theme from the terminal background
const AutoStyle = "auto"

// previewModel shows a generated document in a scrollable pane
type previewModel struct {
	title        string
	markdown     string
	glamourStyle string
	clip         output.Clipboard

	viewport viewport.Model
	ready    bool
	raw      bool
	status   string
	width    int
	quitting bool
}

func newPreviewModel(title, markdown, glamourStyle string, clip output.Clipboard) previewModel {
	if glamourStyle == "" {
		glamourStyle = AutoStyle
	}
	return previewModel{
		title:        title,
		markdown:     markdown,
		glamourStyle: glamourStyle,
		clip:         clip,
	}
}

// Init implements tea.Model
func (m previewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-chromeHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.viewport.SetContent(m.render())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.raw = !m.raw
			m.status = ""
			if m.ready {
				m.viewport.SetContent(m.render())
				m.viewport.GotoTop()
			}
			return m, nil
		case "c":
			if m.clip == nil {
				return m, nil
			}
			if err := m.clip.Copy(m.markdown); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "copied to clipboard"
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m previewModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading…"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.Status.Render(m.status))
	} else {
		mode := "rendered"
		if m.raw {
			mode = "raw"
		}
		b.WriteString(styles.Help.Render(fmt.Sprintf("%3.f%% · %s · r toggle raw · c copy · q quit",
			m.viewport.ScrollPercent()*100, mode)))
	}
	return b.String()
}

// render returns the document as shown in the pane
func (m previewModel) render() string {
	if m.raw {
		return m.markdown
	}
	return renderMarkdown(m.markdown, m.glamourStyle, m.width)
}

// renderMarkdown styles markdown for the terminal, falling back to the raw text
func renderMarkdown(markdown, style string, width int) string {
	styleOpt := glamour.WithStandardStyle(style)
	if style == AutoStyle {
		styleOpt = glamour.WithAutoStyle()
	}
	opts := []glamour.TermRendererOption{styleOpt}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// Run shows the generated document until the user quits
func Run(title, markdown, glamourStyle string, clip output.Clipboard) error {
	ttyIn, ttyOut, cleanup := getTTY()
	defer cleanup()
	RefreshStyles() // Refresh after getTTY sets up the renderer

	m := newPreviewModel(title, markdown, glamourStyle, clip)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	_, err := p.Run()
	return err
}
