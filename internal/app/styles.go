package app

import "github.com/charmbracelet/lipgloss"

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("39"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	cursorLineStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Bold(true)

	visualLineStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("58"))

	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Underline(true)

	statusInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	statusSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))

	statusWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

func (s statusSeverity) style() lipgloss.Style {
	switch s {
	case statusSuccess:
		return statusSuccessStyle
	case statusWarning:
		return statusWarningStyle
	case statusError:
		return statusErrorStyle
	default:
		return statusInfoStyle
	}
}
