package aggregate

import "github.com/charmbracelet/lipgloss"

// Console palette, shared with the jenv CLI theme
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Violet
	colorAccent  = lipgloss.Color("#34D399") // Emerald (success)
	colorWarning = lipgloss.Color("#FBBF24") // Amber
	colorMuted   = lipgloss.Color("#626262") // Gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	stepStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	missingStyle = lipgloss.NewStyle().
			Foreground(colorWarning)
)
