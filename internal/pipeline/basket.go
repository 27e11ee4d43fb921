package pipeline

import "github.com/theirongolddev/canasta/internal/model"

// SelectBasket returns the products of the first month that appear in every
// later month, sorted by SKU. The first month's entries carry the reference
// name and price.
func SelectBasket(months []model.MonthAggregate) []model.ProductAggregate {
	if len(months) == 0 {
		return nil
	}

	var basket []model.ProductAggregate
	for _, p := range months[0].Products() {
		if inEvery(p.SKU, months[1:]) {
			basket = append(basket, p)
		}
	}
	return basket
}

func inEvery(sku string, months []model.MonthAggregate) bool {
	for _, m := range months {
		if !m.Has(sku) {
			return false
		}
	}
	return true
}
