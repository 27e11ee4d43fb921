package config

import (
	"fmt"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// ExpandMonths turns a month expression into an ordered list of patterns.
// The expression is a comma separated list whose items are single patterns
// or inclusive "YYYY-MM..YYYY-MM" ranges. An expression with no items gives
// an empty list.
func ExpandMonths(expr string) ([]string, error) {
	var out []string
	for _, item := range strings.Split(expr, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		from, to, isRange := strings.Cut(item, "..")
		if !isRange {
			out = append(out, item)
			continue
		}

		start, err := time.Parse(monthLayout, strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("month range %q: bad start: %w", item, err)
		}
		end, err := time.Parse(monthLayout, strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("month range %q: bad end: %w", item, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("month range %q ends before it starts", item)
		}

		for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
			out = append(out, m.Format(monthLayout))
		}
	}

	return out, nil
}
