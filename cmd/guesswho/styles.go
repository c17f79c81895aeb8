// ABOUTME: Terminal styling for CLI output via lipgloss
// ABOUTME: The renderer inspects the writer, so piped output carries no escape codes

package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	ok        lipgloss.Style
	err       lipgloss.Style
	muted     lipgloss.Style
	header    lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:        r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		err:       r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		header:    r.NewStyle().Bold(true).Underline(true),
		assistant: r.NewStyle().Foreground(lipgloss.Color("6")),
		tool:      r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	}
}
