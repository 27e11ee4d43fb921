package tui

import (
	"strconv"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/tui/components"
)

func (a App) renderMonthsTab(cw int) string {
	if a.result == nil {
		return components.ContentCard("Months", "No months loaded.", cw)
	}

	cols := []components.Column{
		{Title: "Month", Width: 9},
		{Title: "Products", Width: 9, Right: true},
		{Title: "Kept", Width: 9, Right: true},
		{Title: "Rejected", Width: 9, Right: true},
		{Title: "Malformed", Width: 9, Right: true},
		{Title: "Fetched", Width: 10, Right: true},
		{Title: "Source", Width: 7},
	}

	rows := make([][]string, 0, len(a.result.Months))
	for _, m := range a.result.Months {
		src := "remote"
		if m.Cached {
			src = "cache"
		}
		fetched := "-"
		if !m.Cached {
			fetched = cli.FormatBytes(int64(m.Bytes))
		}
		rows = append(rows, []string{
			m.Aggregate.Month,
			strconv.Itoa(m.Aggregate.Len()),
			cli.FormatNumber(int64(m.Stats.Kept)),
			cli.FormatNumber(int64(m.Stats.Rejected)),
			cli.FormatNumber(int64(m.Stats.Malformed)),
			fetched,
			src,
		})
	}

	metrics := []components.Metric{
		{Label: "Months", Value: strconv.Itoa(len(a.result.Months))},
		{Label: "Fetched", Value: strconv.Itoa(a.result.Fetched)},
		{Label: "From cache", Value: strconv.Itoa(a.result.CacheHits)},
		{Label: "Malformed lines", Value: cli.FormatNumber(int64(a.result.Malformed))},
	}

	return components.MetricCardRow(metrics, cw) + "\n" +
		components.ContentCard("Per month", components.Table(cols, rows, -1), cw)
}
