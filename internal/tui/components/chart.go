package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line unicode sparkline scaled between the
// series minimum and maximum.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	span := hi - lo

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(blocks) - 1
		if span > 0 {
			idx = 1 + int((v-lo)/span*float64(len(blocks)-2))
		}
		buf.WriteRune(blocks[min(max(idx, 1), len(blocks)-1)])
	}

	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// IndexChart draws a vertical bar per value. Bars rise from a floor just
// below the smallest value, so small movements around an index of 100
// stay visible. labels, when given, must match values one to one.
func IndexChart(values []float64, labels []string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 20 || height < 3 {
		return Sparkline(values, theme.Active.Accent)
	}
	t := theme.Active

	lo, hi := bounds(values)
	step := tickStep(hi - lo)
	floor := math.Floor(lo/step)*step - step
	ceiling := math.Ceil(hi/step) * step
	if ceiling <= floor {
		ceiling = floor + step
	}

	yLabelW := max(len(formatTick(ceiling)), len(formatTick(floor))) + 1

	n := len(values)
	chartW := width - yLabelW - 1
	barW := min(max((chartW-(n-1))/n, 1), 5)
	axisLen := n*barW + (n - 1)

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := floor + (ceiling-floor)*float64(row)/float64(height)
		rowBottom := floor + (ceiling-floor)*float64(row-1)/float64(height)

		label := ""
		if row == height {
			label = formatTick(ceiling)
		} else if row == (height+1)/2 {
			label = formatTick((ceiling + floor) / 2)
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			barStyle := lipgloss.NewStyle().Foreground(barColor(values, i)).Background(t.Surface)
			switch {
			case v >= rowTop:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = min(max(idx, 1), 8)
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└", yLabelW, formatTick(floor))))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(axisLabels(labels, barW, axisLen)))
	}
	return b.String()
}

// barColor colors a bar by its change from the previous one.
func barColor(values []float64, i int) lipgloss.Color {
	if i == 0 {
		return theme.Active.Accent
	}
	return ChangeColor(values[i] - values[i-1])
}

// axisLabels places labels under their bars, skipping any that would
// overlap the previous one.
func axisLabels(labels []string, barW, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	lastEnd := -1
	for i, lbl := range labels {
		pos := i * (barW + 1)
		r := []rune(lbl)
		if pos <= lastEnd || pos+len(r) > axisLen {
			continue
		}
		copy(buf[pos:], r)
		lastEnd = pos + len(r)
	}
	return strings.TrimRight(string(buf), " ")
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// tickStep picks a 1/2/5 step giving roughly five ticks over span.
func tickStep(span float64) float64 {
	if span <= 0 {
		return 1
	}
	rough := span / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
