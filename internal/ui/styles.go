package ui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	status      lipgloss.Style
	errorStatus lipgloss.Style
	prompt      lipgloss.Style
}

func newStyles() styles {
	return styles{
		status:      lipgloss.NewStyle().Faint(true),
		errorStatus: lipgloss.NewStyle().Bold(true),
		prompt:      lipgloss.NewStyle().Bold(true),
	}
}
