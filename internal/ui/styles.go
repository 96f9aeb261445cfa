// Package ui writes pget's user-facing messages. Styling is resolved per
// writer, so output to a pipe or a test buffer is plain text.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
const (
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorMuted     = lipgloss.Color("#6B7280")
)

// Styles holds the styles bound to one writer's renderer.
type Styles struct {
	Heading lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Command lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles builds Styles whose color profile follows w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Heading: r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(ColorSuccess),
		Warning: r.NewStyle().Foreground(ColorWarning),
		Error:   r.NewStyle().Bold(true).Foreground(ColorError),
		Command: r.NewStyle().Foreground(ColorHighlight),
		Muted:   r.NewStyle().Foreground(ColorMuted),
	}
}
