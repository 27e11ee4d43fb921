package components

import (
	"strings"

	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Column describes one table column.
type Column struct {
	Title string
	Width int
	Right bool // right-align numbers
}

// Table renders a header row plus rows inside the surface color. The row
// at highlight (if >= 0) is drawn with the hover background.
func Table(cols []Column, rows [][]string, highlight int) string {
	t := theme.Active

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hotStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	gapStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString(gapStyle.Render("  "))
		}
		b.WriteString(headStyle.Render(fit(c.Title, c.Width, c.Right)))
	}

	for ri, row := range rows {
		b.WriteString("\n")
		style := cellStyle
		gap := gapStyle
		if ri == highlight {
			style = hotStyle
			gap = hotStyle
		}
		for i, c := range cols {
			if i > 0 {
				b.WriteString(gap.Render("  "))
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(style.Render(fit(cell, c.Width, c.Right)))
		}
	}
	return b.String()
}

// fit truncates or pads s to exactly w display cells.
func fit(s string, w int, right bool) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > w {
		if w == 1 {
			return "…"
		}
		return string(r[:w-1]) + "…"
	}
	pad := strings.Repeat(" ", w-len(r))
	if right {
		return pad + s
	}
	return s + pad
}
