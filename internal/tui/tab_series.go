package tui

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/tui/components"
	"github.com/theirongolddev/canasta/internal/tui/theme"
)

const (
	tabSeries = iota
	tabBasket
	tabMonths
)

func (a App) renderSeriesTab(cw int) string {
	if a.noData || a.analysis == nil {
		return components.ContentCard("Series", pipeline.NoDataMessage, cw)
	}
	t := theme.Active
	series := a.analysis.Series

	lastIPC := pipeline.BaseIPC
	lastChange := 0.0
	if n := len(series.Points); n > 0 {
		lastIPC = series.Points[n-1].IPC
		lastChange = series.Points[n-1].Inflation
	}

	metrics := []components.Metric{
		{
			Label: "Accumulated",
			Value: cli.FormatChange(series.Accumulated),
			Delta: fmt.Sprintf("%d transitions", series.Transitions()),
			Color: components.ChangeColor(series.Accumulated),
		},
		{
			Label: "Last IPC",
			Value: cli.FormatIndex(lastIPC),
			Delta: cli.FormatChange(lastChange) + " last month",
		},
		{
			Label: "Basket",
			Value: cli.FormatNumber(int64(series.BasketSize)) + " products",
			Delta: "present in every month",
		},
		{
			Label: "Base total",
			Value: cli.FormatAmount(series.BaseTotal),
			Delta: series.BaseMonth,
			Color: t.Accent,
		},
	}

	values := []float64{pipeline.BaseIPC}
	labels := []string{shortMonth(series.BaseMonth)}
	rows := [][]string{{series.BaseMonth, cli.FormatAmount(series.BaseTotal), cli.FormatIndex(pipeline.BaseIPC), "", ""}}
	for _, p := range series.Points {
		values = append(values, p.IPC)
		labels = append(labels, shortMonth(p.Month))
		rows = append(rows, []string{
			p.Month,
			cli.FormatAmount(p.Total),
			cli.FormatIndex(p.IPC),
			cli.FormatChange(p.Inflation),
			cli.FormatChange(p.Accumulated),
		})
	}

	inner := components.CardInnerWidth(cw)
	chart := components.ContentCard("IPC by month", components.IndexChart(values, labels, inner, 8), cw)

	cols := []components.Column{
		{Title: "Month", Width: 9},
		{Title: "Basket total", Width: 14, Right: true},
		{Title: "IPC", Width: 8, Right: true},
		{Title: "Change", Width: 10, Right: true},
		{Title: "Accumulated", Width: 12, Right: true},
	}
	table := components.ContentCard("Transitions", components.Table(cols, rows, -1), cw)

	return components.MetricCardRow(metrics, cw) + "\n" + chart + "\n" + table
}

// shortMonth turns "2022-03" into "03"; other patterns pass through.
func shortMonth(m string) string {
	if len(m) == 7 && m[4] == '-' {
		return m[5:]
	}
	return m
}
