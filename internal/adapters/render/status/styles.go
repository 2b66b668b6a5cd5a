package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	panel      lipgloss.Style
	marker     lipgloss.Style
	label      lipgloss.Style
	low        lipgloss.Style
	medium     lipgloss.Style
	high       lipgloss.Style
	barBracket lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		panel:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		marker:     lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		label:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		low:        lipgloss.NewStyle().Faint(true),
		medium:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		high:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
