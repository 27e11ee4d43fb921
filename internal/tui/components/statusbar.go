package components

import (
	"strings"

	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// source and data age on the right.
func RenderStatusBar(width int, source, dataAge string, refreshing bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	accent := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := style.Render(" [?]help  [r]efresh  [q]uit")

	var right string
	switch {
	case refreshing:
		right = accent.Render("refreshing… ")
	case dataAge != "":
		right = style.Render(source + "  " + dataAge + " ")
	default:
		right = style.Render(source + " ")
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + style.Render(strings.Repeat(" ", gap)) + right
}
