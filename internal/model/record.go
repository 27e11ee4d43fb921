// Package model defines domain types for canasta transactions, baskets and index series.
package model

import "sort"

// TransactionRecord is one decoded line of the transactions file.
type TransactionRecord struct {
	SKU      string
	Name     string
	Price    string // raw field, quotes included
	Quantity string
	Date     string
	Status   string // quotes stripped
}

// ProductAggregate collapses every qualifying record of one SKU within a month.
type ProductAggregate struct {
	SKU   string
	Name  string // first occurrence in the month
	Price string // first occurrence in the month, raw
	Count int
}

// MonthAggregate maps SKU to its aggregate for one month. It is not
// modified after construction.
type MonthAggregate struct {
	Month    string
	products map[string]ProductAggregate
}

// NewMonthAggregate builds a month from its products. A SKU listed twice
// keeps the first entry.
func NewMonthAggregate(month string, products []ProductAggregate) MonthAggregate {
	m := MonthAggregate{
		Month:    month,
		products: make(map[string]ProductAggregate, len(products)),
	}
	for _, p := range products {
		if _, ok := m.products[p.SKU]; ok {
			continue
		}
		m.products[p.SKU] = p
	}
	return m
}

// Lookup returns the aggregate for sku.
func (m MonthAggregate) Lookup(sku string) (ProductAggregate, bool) {
	p, ok := m.products[sku]
	return p, ok
}

// Has reports whether sku was seen in the month.
func (m MonthAggregate) Has(sku string) bool {
	_, ok := m.products[sku]
	return ok
}

// Len returns the number of distinct products.
func (m MonthAggregate) Len() int {
	return len(m.products)
}

// Products returns the month's products sorted by SKU.
func (m MonthAggregate) Products() []ProductAggregate {
	out := make([]ProductAggregate, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SKU < out[j].SKU
	})
	return out
}
