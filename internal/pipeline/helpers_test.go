package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/theirongolddev/canasta/internal/model"
)

// line builds one transaction line.
func line(sku, name string, price int, date, status string) string {
	return fmt.Sprintf("%s;%s;\"%d\";1;%s;\"%s\"", sku, name, price, date, status)
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

// month builds an aggregate straight from sku -> price pairs.
func month(name string, prices map[string]int) model.MonthAggregate {
	var products []model.ProductAggregate
	for sku, price := range prices {
		products = append(products, model.ProductAggregate{
			SKU:   sku,
			Name:  sku,
			Price: fmt.Sprintf("%q", fmt.Sprint(price)),
			Count: 1,
		})
	}
	return model.NewMonthAggregate(name, products)
}

// fakeGateway serves canned text per month and records calls.
type fakeGateway struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (g *fakeGateway) FetchMonth(ctx context.Context, _, datePattern string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, datePattern)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := g.errs[datePattern]; ok {
		return "", err
	}
	return g.texts[datePattern], nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
