// ABOUTME: Lipgloss styles for dashboard rendering
// ABOUTME: Maps health states and score bands to terminal colors
package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pulsemap/pulsemap/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110"))

	healthyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	inactiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	abandonedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// healthStyle maps a board health state to its display style.
func healthStyle(health string) lipgloss.Style {
	switch health {
	case models.HealthHealthy:
		return healthyStyle
	case models.HealthWarning:
		return warningStyle
	case models.HealthAbandoned:
		return abandonedStyle
	default:
		return inactiveStyle
	}
}

// scoreStyle maps a workspace score band to its display style.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 70:
		return healthyStyle
	case score >= 40:
		return warningStyle
	default:
		return abandonedStyle
	}
}
