// Package pipeline turns fetched month text into aggregates, selects the
// basket and computes the accumulated inflation index.
package pipeline

import (
	"strings"

	"github.com/theirongolddev/canasta/internal/model"
	"github.com/theirongolddev/canasta/internal/source"
)

// AggregateMonth collapses the filtered lines of one month by SKU. The first
// occurrence of a SKU fixes its name and price; later ones only add to the
// count. Lines that fail to decode are skipped.
func AggregateMonth(month, filtered string) model.MonthAggregate {
	var (
		order []string
		byKey = make(map[string]*model.ProductAggregate)
	)

	for line := range strings.Lines(filtered) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		rec, err := source.ParseRecord(line)
		if err != nil {
			continue
		}

		if p, ok := byKey[rec.SKU]; ok {
			p.Count++
			continue
		}
		byKey[rec.SKU] = &model.ProductAggregate{
			SKU:   rec.SKU,
			Name:  rec.Name,
			Price: rec.Price,
			Count: 1,
		}
		order = append(order, rec.SKU)
	}

	products := make([]model.ProductAggregate, 0, len(order))
	for _, sku := range order {
		products = append(products, *byKey[sku])
	}
	return model.NewMonthAggregate(month, products)
}

// MonthResult is one month after filtering and aggregation.
type MonthResult struct {
	Aggregate model.MonthAggregate
	Stats     source.FilterStats
	Bytes     int  // size of the fetched text
	Cached    bool // served from the store without fetching
}

// BuildMonth filters raw month text by status and aggregates what remains.
func BuildMonth(month, raw string, allowed []string) MonthResult {
	filtered, stats := source.FilterByStatusStats(raw, allowed)
	return MonthResult{
		Aggregate: AggregateMonth(month, filtered),
		Stats:     stats,
		Bytes:     len(raw),
	}
}
