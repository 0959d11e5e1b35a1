package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingColor = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F3F4F6"}
	successColor = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	warningColor = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// styles renders for one writer; colours are dropped when it is not a terminal
type styles struct {
	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	path    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Foreground(headingColor).Bold(true),
		success: r.NewStyle().Foreground(successColor).Bold(true),
		warning: r.NewStyle().Foreground(warningColor),
		err:     r.NewStyle().Foreground(errorColor).Bold(true),
		muted:   r.NewStyle().Foreground(mutedColor),
		path:    r.NewStyle().Foreground(mutedColor).Italic(true),
	}
}

func formatError(s styles, err error) string {
	return s.err.Render("Error:") + " " + err.Error()
}

// renderLines styles every line of text separately
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}
