package cli

import (
	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var colors = palette{
	Primary:   lipgloss.Color("#7C3AED"),
	Secondary: lipgloss.Color("#06B6D4"),
	Muted:     lipgloss.Color("#6C7086"),
	Success:   lipgloss.Color("#A6E3A1"),
	Warning:   lipgloss.Color("#F9E2AF"),
	Error:     lipgloss.Color("#F38BA8"),
}

var styles = struct {
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Answer  lipgloss.Style
	Source  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Foreground(colors.Primary).Bold(true),
	Prompt:  lipgloss.NewStyle().Foreground(colors.Secondary).Bold(true),
	Answer:  lipgloss.NewStyle(),
	Source:  lipgloss.NewStyle().Foreground(colors.Secondary),
	Muted:   lipgloss.NewStyle().Foreground(colors.Muted),
	Success: lipgloss.NewStyle().Foreground(colors.Success),
	Warning: lipgloss.NewStyle().Foreground(colors.Warning),
	Error:   lipgloss.NewStyle().Foreground(colors.Error).Bold(true),
}
