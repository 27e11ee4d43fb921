package components

import (
	"strings"

	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune // shortcut; always the first letter of Name, lowercased
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Series", Key: 's'},
	{Name: "Basket", Key: 'b'},
	{Name: "Months", Key: 'm'},
}

// TabWidth is the rendered width of tab i, including padding and the
// shortcut brackets drawn on inactive tabs.
func TabWidth(i, activeIdx int) int {
	w := lipgloss.Width(Tabs[i].Name) + 2
	if i != activeIdx {
		w += 2
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)
	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)
	sepStyle := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(tab.Name))
			continue
		}
		// " [S]eries "
		parts = append(parts, inactiveStyle.Render(" ")+
			dimStyle.Render("[")+keyStyle.Render(tab.Name[:1])+dimStyle.Render("]")+
			inactiveStyle.Render(tab.Name[1:]+" "))
	}

	row := strings.Join(parts, sepStyle.Render(" "))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
