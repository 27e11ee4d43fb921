package pipeline

import (
	"errors"

	"github.com/theirongolddev/canasta/internal/model"
)

// Analysis is the basket and index computed from loaded months.
type Analysis struct {
	Basket []model.ProductAggregate
	Series model.IndexSeries
}

// Analyze selects the basket and computes the index. On error the returned
// Analysis still holds whatever was computed before the failure.
func Analyze(months []model.MonthAggregate) (*Analysis, error) {
	a := &Analysis{Basket: SelectBasket(months)}
	series, err := ComputeIndex(a.Basket, months)
	a.Series = series
	if err != nil {
		return a, err
	}
	return a, nil
}

// IsNoData reports whether err means there was nothing to index, which is
// shown to the user as NoDataMessage rather than as a failure.
func IsNoData(err error) bool {
	return errors.Is(err, ErrEmptySeries) || errors.Is(err, ErrEmptyBasket)
}
