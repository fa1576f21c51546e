package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all styling for the TUI
type Styles struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Marked   lipgloss.Style
	Free     lipgloss.Style
	Cursor   lipgloss.Style
	Player   lipgloss.Style
	Host     lipgloss.Style
	Winner   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	FormPane lipgloss.Style
}

// DefaultStyles returns the default color scheme
func DefaultStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Cell: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Marked: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Foreground(lipgloss.Color("#04B575")).
			Padding(0, 1).
			Bold(true),
		Free: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Foreground(lipgloss.Color("#FFD700")).
			Padding(0, 1).
			Bold(true),
		Cursor: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Player: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		Host: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		FormPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(1),
	}
}
