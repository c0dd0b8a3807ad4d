package render

import "github.com/charmbracelet/lipgloss"

// Styles holds every lipgloss style the terminal views use.
type Styles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Muted    lipgloss.Style
	Income   lipgloss.Style
	Expense  lipgloss.Style
	Bar      lipgloss.Style
	Card     lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Warning  lipgloss.Style
	Progress lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Heading:  lipgloss.NewStyle().Bold(true).Underline(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")),
		Income:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		Expense:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")),
		Bar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#36A2EB")),
		Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		Failure:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff0000")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d29b1d")),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color("#4BC0C0")),
	}
}
