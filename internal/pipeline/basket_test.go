package pipeline

import (
	"testing"

	"github.com/theirongolddev/canasta/internal/model"
)

func skus(basket []model.ProductAggregate) []string {
	out := make([]string, len(basket))
	for i, p := range basket {
		out[i] = p.SKU
	}
	return out
}

func TestSelectBasket(t *testing.T) {
	tests := []struct {
		name   string
		months []model.MonthAggregate
		want   []string
	}{
		{"no months", nil, nil},
		{
			"single month keeps everything",
			[]model.MonthAggregate{month("2022-01", map[string]int{"A1": 100, "B2": 50})},
			[]string{"A1", "B2"},
		},
		{
			"absent in middle month excluded",
			[]model.MonthAggregate{
				month("2022-01", map[string]int{"A1": 100, "B2": 50}),
				month("2022-02", map[string]int{"A1": 110}),
				month("2022-03", map[string]int{"A1": 120, "B2": 55}),
			},
			[]string{"A1"},
		},
		{
			"products new after base month ignored",
			[]model.MonthAggregate{
				month("2022-01", map[string]int{"A1": 100}),
				month("2022-02", map[string]int{"A1": 110, "C3": 10}),
			},
			[]string{"A1"},
		},
		{
			"nothing in common",
			[]model.MonthAggregate{
				month("2022-01", map[string]int{"A1": 100}),
				month("2022-02", map[string]int{"B2": 110}),
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := skus(SelectBasket(tt.months))
			if len(got) != len(tt.want) {
				t.Fatalf("basket = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("basket = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestSelectBasket_SubsetOfBase(t *testing.T) {
	months := []model.MonthAggregate{
		month("2022-01", map[string]int{"A1": 100, "B2": 50, "C3": 20}),
		month("2022-02", map[string]int{"A1": 110, "B2": 55, "C3": 21, "D4": 5}),
	}

	for _, p := range SelectBasket(months) {
		base, ok := months[0].Lookup(p.SKU)
		if !ok {
			t.Errorf("%s not in base month", p.SKU)
			continue
		}
		if base.Price != p.Price {
			t.Errorf("%s price = %s, want base price %s", p.SKU, p.Price, base.Price)
		}
	}
}

func TestSelectBasket_RemovalPropagates(t *testing.T) {
	full := []model.MonthAggregate{
		month("2022-01", map[string]int{"A1": 100, "B2": 50}),
		month("2022-02", map[string]int{"A1": 110, "B2": 55}),
		month("2022-03", map[string]int{"A1": 120, "B2": 60}),
	}
	if n := len(SelectBasket(full)); n != 2 {
		t.Fatalf("full basket = %d, want 2", n)
	}

	for i := 1; i < len(full); i++ {
		months := append([]model.MonthAggregate(nil), full...)
		months[i] = month(months[i].Month, map[string]int{"A1": 1})
		for _, p := range SelectBasket(months) {
			if p.SKU == "B2" {
				t.Errorf("B2 kept after removal from %s", months[i].Month)
			}
		}
	}
}
