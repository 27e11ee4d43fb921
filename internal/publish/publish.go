// Package publish renders computed runs as JSON and markdown and uploads
// them to object storage.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/theirongolddev/canasta/internal/cli"
	"github.com/theirongolddev/canasta/internal/model"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/store"
)

// Publisher stores one named object.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte, contentType string) error
}

// BasketItem is a basket product as published.
type BasketItem struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	BasePrice string `json:"base_price"`
	Count     int    `json:"count"`
}

// Point is one index transition as published.
type Point struct {
	Month       string  `json:"month"`
	Total       string  `json:"total"`
	IPC         float64 `json:"ipc"`
	Inflation   float64 `json:"inflation"`
	Accumulated float64 `json:"accumulated"`
}

// Document is the published form of a run.
type Document struct {
	RunID       string       `json:"run_id"`
	Source      string       `json:"source"`
	ComputedAt  time.Time    `json:"computed_at"`
	Months      []string     `json:"months"`
	BaseMonth   string       `json:"base_month"`
	BaseTotal   string       `json:"base_total"`
	Basket      []BasketItem `json:"basket"`
	Points      []Point      `json:"points"`
	Accumulated float64      `json:"accumulated"`
	Summary     string       `json:"summary"`
}

// NewDocument builds the published form of run.
func NewDocument(run store.Run, basket []model.ProductAggregate) Document {
	doc := Document{
		RunID:       run.ID,
		Source:      run.Source,
		ComputedAt:  run.ComputedAt.UTC(),
		Months:      run.Months,
		BaseMonth:   run.BaseMonth,
		BaseTotal:   run.BaseTotal.String(),
		Accumulated: run.Accumulated,
		Summary:     pipeline.FormatAccumulated(run.Accumulated),
		Basket:      make([]BasketItem, 0, len(basket)),
		Points:      make([]Point, 0, len(run.Points)),
	}
	for _, p := range basket {
		price := p.Price
		if v, err := pipeline.ParsePrice(p.Price); err == nil {
			price = v.String()
		}
		doc.Basket = append(doc.Basket, BasketItem{SKU: p.SKU, Name: p.Name, BasePrice: price, Count: p.Count})
	}
	for _, p := range run.Points {
		doc.Points = append(doc.Points, Point{
			Month:       p.Month,
			Total:       p.Total.String(),
			IPC:         p.IPC,
			Inflation:   p.Inflation,
			Accumulated: p.Accumulated,
		})
	}
	return doc
}

// JSON returns the indented JSON encoding of doc.
func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Markdown renders doc as a markdown report.
func (d Document) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Canasta básica: %s\n\n", d.Summary)
	fmt.Fprintf(&b, "- Run: `%s`\n", d.RunID)
	fmt.Fprintf(&b, "- Source: `%s`\n", d.Source)
	fmt.Fprintf(&b, "- Computed: %s\n", d.ComputedAt.Format(time.RFC1123))
	if len(d.Months) > 0 {
		fmt.Fprintf(&b, "- Months: %s to %s (%d)\n", d.Months[0], d.Months[len(d.Months)-1], len(d.Months))
	}
	fmt.Fprintf(&b, "- Base month: %s, basket total %s\n\n", d.BaseMonth, d.BaseTotal)

	b.WriteString("## Series\n\n")
	if len(d.Points) == 0 {
		b.WriteString("No month-to-month transitions.\n\n")
	} else {
		b.WriteString("| Month | Total | IPC | Change | Accumulated |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, p := range d.Points {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				p.Month, p.Total, cli.FormatIndex(p.IPC), cli.FormatChange(p.Inflation), cli.FormatChange(p.Accumulated))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Basket (%d products)\n\n", len(d.Basket))
	if len(d.Basket) > 0 {
		b.WriteString("| SKU | Product | Base price | Sales |\n")
		b.WriteString("|---|---|---:|---:|\n")
		for _, p := range d.Basket {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", p.SKU, escapeCell(p.Name), p.BasePrice, p.Count)
		}
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ObjectNames returns the JSON and markdown object names for a run.
func ObjectNames(prefix, runID string) (jsonName, mdName string) {
	base := path.Join(prefix, runID)
	return base + ".json", base + ".md"
}

// Run uploads the JSON and markdown forms of doc under prefix and returns
// the object names written.
func Run(ctx context.Context, p Publisher, prefix string, doc Document) ([]string, error) {
	data, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding run %s: %w", doc.RunID, err)
	}
	jsonName, mdName := ObjectNames(prefix, doc.RunID)

	if err := p.Publish(ctx, jsonName, data, "application/json"); err != nil {
		return nil, fmt.Errorf("publishing %s: %w", jsonName, err)
	}
	if err := p.Publish(ctx, mdName, []byte(doc.Markdown()), "text/markdown; charset=utf-8"); err != nil {
		return []string{jsonName}, fmt.Errorf("publishing %s: %w", mdName, err)
	}
	return []string{jsonName, mdName}, nil
}
