package console

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(NeonCyan).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(NeonPurple).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(Gray)

	ArtistStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	LabelStyle = lipgloss.NewStyle().
			Foreground(NeonPink)

	// Log Entry Styles
	LogStyleStarted = lipgloss.NewStyle().
			Foreground(StateDownloading)

	LogStyleComplete = lipgloss.NewStyle().
				Foreground(StateDone)

	LogStyleError = lipgloss.NewStyle().
			Foreground(StateError)

	LogStyleCancelled = lipgloss.NewStyle().
				Foreground(StateCancelled)
)

// StatusStyle picks the style for a per-track affordance.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "downloading":
		return LogStyleStarted
	case "downloaded":
		return LogStyleComplete
	default:
		return ArtistStyle
	}
}
