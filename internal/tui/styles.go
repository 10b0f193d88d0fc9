package tui

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 28

var (
	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Padding(1, 2).
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginBottom(1)

	navItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	accountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	userBubbleStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("255"))

	assistantBubbleStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(lipgloss.Color("238")).
				Foreground(lipgloss.Color("255"))

	typingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)
