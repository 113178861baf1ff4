package console

import "github.com/charmbracelet/lipgloss"

// Console styling. Rendering degrades gracefully on dumb terminals
// because lipgloss drops ANSI sequences when the output is not a TTY.
var (
	stylePrompt  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	styleModule  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
	styleBanner  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
)
