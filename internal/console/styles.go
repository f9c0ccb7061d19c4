package console

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#2563EB")
	colorSecondary = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorFg        = lipgloss.Color("#F9FAFB")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	CommandStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	OutputStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(colorError)

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(colorFg).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	FocusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(colorPrimary).
				Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorMuted)

	ActiveTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorPrimary).
			Bold(true).
			Underline(true)
)

// RenderError renders an error line
func RenderError(err string) string {
	return ErrorMessageStyle.Render("error: " + err)
}
