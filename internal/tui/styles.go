package tui

import "github.com/charmbracelet/lipgloss"

var (
	brand   = lipgloss.Color("#E30613")
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#8A8F98")
	border  = lipgloss.Color("#3A3F4B")
	warning = lipgloss.Color("#FFC107")
)

// Styles groups the lipgloss styles used by the browser.
type Styles struct {
	Title    lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
	Cursor   lipgloss.Style
	Active   lipgloss.Style
	Muted    lipgloss.Style
	Price    lipgloss.Style
	Discount lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the browser palette.
func DefaultStyles() Styles {
	pane := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(brand),
		Pane:     pane,
		Focused:  pane.BorderForeground(accent),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Price:    lipgloss.NewStyle().Bold(true),
		Discount: lipgloss.NewStyle().Foreground(brand),
		Status:   lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(warning),
	}
}
