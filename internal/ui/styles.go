package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - single lime accent over grays.
const (
	ColorLime     = "154" // Primary accent - bright lime green
	ColorLimeDim  = "106" // Dimmed lime for secondary accents
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Box borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the lipgloss styles used across swindex output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style

	Border lipgloss.Style
	Panel  lipgloss.Style
}

// DefaultStyles returns the lime-accented styles for color terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Active:  lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
		Border:  lipgloss.NewStyle(),
		Panel:   lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
