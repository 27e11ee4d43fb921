package model

import "github.com/shopspring/decimal"

// IndexPoint is one month-to-month transition of the price index.
type IndexPoint struct {
	Month       string
	Total       decimal.Decimal // basket total this month
	BaseTotal   decimal.Decimal // basket total of the base month
	IPC         float64         // Total / BaseTotal * 100
	Inflation   float64         // percent change against the previous IPC
	Accumulated float64         // running sum of Inflation
}

// IndexSeries is the computed index over a month sequence.
type IndexSeries struct {
	BaseMonth   string
	BaseTotal   decimal.Decimal
	BasketSize  int
	Points      []IndexPoint
	Accumulated float64
}

// Transitions returns the number of month-to-month steps in the series.
func (s IndexSeries) Transitions() int {
	return len(s.Points)
}
