package tui

import "github.com/charmbracelet/lipgloss"

var (
	appStyle        = lipgloss.NewStyle().Padding(1, 2)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	helpStyle       = lipgloss.NewStyle().Faint(true)
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	overlayBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

var levelColors = map[string]lipgloss.Color{
	"normal":         lipgloss.Color("10"),
	"reduced":        lipgloss.Color("11"),
	"minimal":        lipgloss.Color("214"),
	"manual_refresh": lipgloss.Color("208"),
	"offline":        lipgloss.Color("9"),
}

func levelStyle(level string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := levelColors[level]; ok {
		style = style.Foreground(c)
	}
	return style
}

// breakerStyle highlights breakers that are not closed.
func breakerStyle(state string) lipgloss.Style {
	if state == "closed" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
}
