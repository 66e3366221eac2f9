package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// StyleManager encapsulates the preview chrome styles
type StyleManager struct {
	Title   lipgloss.Style
	Help    lipgloss.Style
	Status  lipgloss.Style
	Divider lipgloss.Style

	// Colors for direct access
	Accent lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	accent := lipgloss.Color("212")
	return &StyleManager{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Divider: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Accent:  accent,
	}
}

// Global style manager instance
var styles = DefaultStyles()

// RefreshStyles rebuilds the styles against the current default renderer
func RefreshStyles() {
	styles = DefaultStyles()
}
