package reader

import "github.com/charmbracelet/lipgloss"

var (
	colorText    = lipgloss.Color("#cdd6f4")
	colorSubtext = lipgloss.Color("#a6adc8")
	colorAccent  = lipgloss.Color("#74c7ec")
	colorGreen   = lipgloss.Color("#a6e3a1")
	colorPeach   = lipgloss.Color("#fab387")
	colorBorder  = lipgloss.Color("#45475a")

	titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorSubtext)
	errorStyle = lipgloss.NewStyle().Foreground(colorPeach).Bold(true)

	pageStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Foreground(colorText).
			Padding(1, 2)

	stateStyles = map[string]lipgloss.Style{
		"active": lipgloss.NewStyle().Foreground(colorGreen).Bold(true),
		"paused": lipgloss.NewStyle().Foreground(colorPeach),
		"idle":   lipgloss.NewStyle().Foreground(colorSubtext),
	}
)

func renderState(state string) string {
	style, ok := stateStyles[state]
	if !ok {
		style = mutedStyle
	}
	return style.Render("● " + state)
}
