package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/theirongolddev/canasta/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
		}
		sum := 0
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
			}
			sum += got[i]
		}
		if tt.n > 0 && sum != tt.total {
			t.Errorf("widths sum to %d, want %d", sum, tt.total)
		}
	}
}

func TestCardRowPadsShorterCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4", 22)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != lipgloss.Height(tallCard) {
		t.Fatalf("joined height = %d, want %d", len(lines), lipgloss.Height(tallCard))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 44 {
			t.Errorf("line %d width = %d, want 44", i, w)
		}
		if !strings.Contains(line, "\x1b[") {
			t.Errorf("line %d has no ANSI styling", i)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	for i, tab := range Tabs {
		if got := TabIdxByKey(tab.Key); got != i {
			t.Errorf("TabIdxByKey(%q) = %d, want %d", tab.Key, got, i)
		}
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestIndexChart(t *testing.T) {
	values := []float64{100, 104, 110, 108}
	labels := []string{"01", "02", "03", "04"}

	out := IndexChart(values, labels, 40, 6)
	lines := strings.Split(out, "\n")
	// height rows + axis + labels
	if len(lines) != 8 {
		t.Fatalf("chart has %d lines, want 8:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[len(lines)-1], "01") {
		t.Errorf("label row = %q, want month labels", lines[len(lines)-1])
	}
}

func TestIndexChartFallsBackToSparkline(t *testing.T) {
	out := IndexChart([]float64{100, 101}, nil, 10, 2)
	if strings.Contains(out, "\n") {
		t.Errorf("narrow chart should be a single-line sparkline, got %q", out)
	}
}

func TestTickStep(t *testing.T) {
	tests := []struct {
		span float64
		want float64
	}{
		{0, 1},
		{10, 2},
		{5, 1},
		{30, 5},
		{100, 20},
	}
	for _, tt := range tests {
		if got := tickStep(tt.span); got != tt.want {
			t.Errorf("tickStep(%v) = %v, want %v", tt.span, got, tt.want)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		s     string
		w     int
		right bool
		want  string
	}{
		{"abc", 5, false, "abc  "},
		{"abc", 5, true, "  abc"},
		{"leche entera", 6, false, "leche…"},
		{"ñandú", 5, false, "ñandú"},
		{"abc", 0, false, ""},
	}
	for _, tt := range tests {
		if got := fit(tt.s, tt.w, tt.right); got != tt.want {
			t.Errorf("fit(%q, %d, %v) = %q, want %q", tt.s, tt.w, tt.right, got, tt.want)
		}
	}
}
