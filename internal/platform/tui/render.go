package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/cardflip/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	winStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	lossStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// suitStyles maps a card colour to its lipgloss style.
var suitStyles = map[core.Choice]lipgloss.Style{
	core.Red:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Background(lipgloss.Color("15")),
	core.Black: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("15")),
}

var suits = map[core.Choice]string{
	core.Red:   "♥",
	core.Black: "♠",
}

// renderCard draws a face-up card of colour c.
func renderCard(c core.Choice) string {
	suit := suits[c]
	lines := []string{
		"┌─────┐",
		"│" + suit + "    │",
		"│  " + suit + "  │",
		"│    " + suit + "│",
		"└─────┘",
	}
	return suitStyles[c].Render(strings.Join(lines, "\n"))
}

// renderCardBack draws a face-down card.
func renderCardBack() string {
	return mutedStyle.Render(strings.Join([]string{
		"┌─────┐",
		"│░░░░░│",
		"│░░░░░│",
		"│░░░░░│",
		"└─────┘",
	}, "\n"))
}

// renderChoice renders a colour name in its suit colour.
func renderChoice(c core.Choice) string {
	style := lossStyle
	if c == core.Black {
		style = lipgloss.NewStyle().Bold(true)
	}
	return style.Render(suits[c] + " " + c.String())
}

// renderOutcome renders a settled outcome.
func renderOutcome(o core.Outcome) string {
	switch o {
	case core.Win:
		return winStyle.Render("WIN")
	case core.Loss:
		return lossStyle.Render("LOSS")
	default:
		return mutedStyle.Render("pending")
	}
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
}
