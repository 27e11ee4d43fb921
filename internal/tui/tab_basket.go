package tui

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/tui/components"
)

// basketOverhead is the card chrome around the basket list: borders,
// title and table header.
const basketOverhead = 4

func (a App) basketRows() [][]string {
	if a.analysis == nil {
		return nil
	}
	rows := make([][]string, 0, len(a.analysis.Basket))
	for _, p := range a.analysis.Basket {
		price := p.Price
		if v, err := pipeline.ParsePrice(p.Price); err == nil {
			price = cli.FormatAmount(v)
		}
		rows = append(rows, []string{p.SKU, p.Name, price, cli.FormatNumber(int64(p.Count))})
	}
	return rows
}

func (a App) renderBasketTab(cw, h int) string {
	rows := a.basketRows()
	if len(rows) == 0 {
		return components.ContentCard("Basket", pipeline.NoDataMessage, cw)
	}

	visible := max(h-basketOverhead, 1)
	offset := a.basketOffset
	if a.basketCursor < offset {
		offset = a.basketCursor
	}
	if a.basketCursor >= offset+visible {
		offset = a.basketCursor - visible + 1
	}
	end := min(offset+visible, len(rows))

	inner := components.CardInnerWidth(cw)
	nameW := max(inner-12-12-8-6, 10)
	cols := []components.Column{
		{Title: "SKU", Width: 12},
		{Title: "Name", Width: nameW},
		{Title: "Price", Width: 12, Right: true},
		{Title: "Count", Width: 8, Right: true},
	}

	title := fmt.Sprintf("Basket · %d products · %d/%d", len(rows), a.basketCursor+1, len(rows))
	return components.ContentCard(title, components.Table(cols, rows[offset:end], a.basketCursor-offset), cw)
}
