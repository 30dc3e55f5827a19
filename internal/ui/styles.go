package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	senderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFFF"))

	systemStyle = lipgloss.NewStyle().
			Faint(true)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505050"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F"))

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			MarginTop(1)
)
