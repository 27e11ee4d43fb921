package components

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// LoadBar renders month fetch progress as "████░░ 3/12".
func LoadBar(done, total, width int) string {
	t := theme.Active

	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	pct = min(max(pct, 0), 1)

	bar := progress.New(
		progress.WithGradient(string(t.Cyan), string(t.AccentBright)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(pct) + spaceStyle.Render(" ") + countStyle.Render(fmt.Sprintf("%d/%d", done, total))
}

// ChangeColor picks the color for a price change: red when prices rose,
// green when they fell.
func ChangeColor(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 0.005:
		return t.Red
	case pct < -0.005:
		return t.Green
	default:
		return t.TextMuted
	}
}
