package ui

import "github.com/charmbracelet/lipgloss"

var (
	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	NoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	FaintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
)
