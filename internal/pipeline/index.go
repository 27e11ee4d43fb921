package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/theirongolddev/canasta/internal/model"
	"github.com/theirongolddev/canasta/internal/source"

	"github.com/shopspring/decimal"
)

// BaseIPC is the index value of the base month.
const BaseIPC = 100.0

// NoDataMessage is printed when there is nothing to compute.
const NoDataMessage = "No hay datos disponibles para calcular la inflación."

var (
	// ErrEmptySeries means no months were given.
	ErrEmptySeries = errors.New("no months to compute")
	// ErrEmptyBasket means no product of the base month appears in every month.
	ErrEmptyBasket = errors.New("no product appears in every month")
	// ErrZeroBaseTotal means the base month basket sums to zero, so no
	// transition can be indexed.
	ErrZeroBaseTotal = errors.New("base month basket total is zero")
)

// NumericConversionError reports a basket price that is not a quoted integer.
type NumericConversionError struct {
	Month string
	SKU   string
	Raw   string
	Err   error
}

func (e *NumericConversionError) Error() string {
	return fmt.Sprintf("price of %s in %s: cannot convert %q: %v", e.SKU, e.Month, e.Raw, e.Err)
}

func (e *NumericConversionError) Unwrap() error {
	return e.Err
}

// ParsePrice strips the quotes from a raw price field and parses the integer
// inside.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s, err := source.StripQuotes(raw)
	if err != nil {
		return decimal.Zero, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(n), nil
}

// BasketTotal sums the month's price of every basket product. A product
// missing from the month contributes nothing.
func BasketTotal(basket []model.ProductAggregate, month model.MonthAggregate) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range basket {
		p, ok := month.Lookup(b.SKU)
		if !ok {
			continue
		}
		price, err := ParsePrice(p.Price)
		if err != nil {
			return decimal.Zero, &NumericConversionError{Month: month.Month, SKU: b.SKU, Raw: p.Price, Err: err}
		}
		total = total.Add(price)
	}
	return total, nil
}

// indexState is carried from one transition to the next.
type indexState struct {
	ipcBase     float64
	accumulated float64
}

func (s indexState) step(month string, total, base decimal.Decimal) (indexState, model.IndexPoint) {
	ipc := total.InexactFloat64() / base.InexactFloat64() * 100.0
	inflation := (ipc - s.ipcBase) / s.ipcBase * 100.0

	next := indexState{
		ipcBase:     ipc,
		accumulated: s.accumulated + inflation,
	}
	return next, model.IndexPoint{
		Month:       month,
		Total:       total,
		BaseTotal:   base,
		IPC:         ipc,
		Inflation:   inflation,
		Accumulated: next.accumulated,
	}
}

// ComputeIndex prices the basket in every month and accumulates the
// month-over-month change of the index. Each month's index is its basket
// total over the base month's total, times 100; the change is measured
// against the previous month's index.
func ComputeIndex(basket []model.ProductAggregate, months []model.MonthAggregate) (model.IndexSeries, error) {
	if len(months) == 0 {
		return model.IndexSeries{}, ErrEmptySeries
	}
	if len(basket) == 0 {
		return model.IndexSeries{BaseMonth: months[0].Month}, ErrEmptyBasket
	}

	base, err := BasketTotal(basket, months[0])
	if err != nil {
		return model.IndexSeries{}, err
	}

	series := model.IndexSeries{
		BaseMonth:  months[0].Month,
		BaseTotal:  base,
		BasketSize: len(basket),
	}
	if len(months) > 1 && base.IsZero() {
		return series, ErrZeroBaseTotal
	}

	state := indexState{ipcBase: BaseIPC}
	for _, m := range months[1:] {
		total, err := BasketTotal(basket, m)
		if err != nil {
			return model.IndexSeries{}, err
		}
		var p model.IndexPoint
		state, p = state.step(m.Month, total, base)
		series.Points = append(series.Points, p)
	}
	series.Accumulated = state.accumulated

	return series, nil
}

// FormatAccumulated renders the result line.
func FormatAccumulated(accumulated float64) string {
	return fmt.Sprintf("Inflación acumulada: %.4f%%", accumulated)
}
