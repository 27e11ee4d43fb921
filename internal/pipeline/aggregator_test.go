package pipeline

import (
	"strings"
	"testing"

	"github.com/theirongolddev/canasta/internal/source"
)

func TestAggregateMonth_FirstWriteWins(t *testing.T) {
	text := lines(
		line("A1", "Milk", 100, "2022-01-05", "FINALIZED"),
		line("A1", "Milk 2L", 150, "2022-01-20", "FINALIZED"),
		line("A1", "Milk 3L", 170, "2022-01-25", "AUTHORIZED"),
		line("B2", "Bread", 50, "2022-01-06", "FINALIZED"),
	)

	agg := AggregateMonth("2022-01", text)

	if agg.Len() != 2 {
		t.Fatalf("products = %d, want 2", agg.Len())
	}
	a1, ok := agg.Lookup("A1")
	if !ok {
		t.Fatal("A1 missing")
	}
	if a1.Name != "Milk" {
		t.Errorf("A1 Name = %q, want Milk (first wins)", a1.Name)
	}
	if a1.Price != `"100"` {
		t.Errorf("A1 Price = %q, want \"100\" (first wins)", a1.Price)
	}
	if a1.Count != 3 {
		t.Errorf("A1 Count = %d, want 3", a1.Count)
	}
	if agg.Month != "2022-01" {
		t.Errorf("Month = %q, want 2022-01", agg.Month)
	}
}

func TestAggregateMonth_Empty(t *testing.T) {
	if agg := AggregateMonth("2022-01", ""); agg.Len() != 0 {
		t.Errorf("products = %d, want 0", agg.Len())
	}
}

func TestAggregateMonth_SkipsUndecodable(t *testing.T) {
	text := lines("garbage", line("A1", "Milk", 100, "2022-01-05", "FINALIZED"))
	agg := AggregateMonth("2022-01", text)
	if agg.Len() != 1 {
		t.Errorf("products = %d, want 1", agg.Len())
	}
}

func TestAggregateMonth_LongLine(t *testing.T) {
	text := lines(
		line("A1", "Milk", 100, "2022-01-05", "FINALIZED"),
		line("X9", strings.Repeat("n", 2<<20), 5, "2022-01-09", "FINALIZED"),
		line("B2", "Bread", 50, "2022-01-06", "FINALIZED"),
	)

	agg := AggregateMonth("2022-01", text)
	for _, sku := range []string{"A1", "X9", "B2"} {
		if !agg.Has(sku) {
			t.Errorf("%s missing after a long line", sku)
		}
	}
}

func TestAggregateMonth_CRLF(t *testing.T) {
	text := line("A1", "Milk", 100, "2022-01-05", "FINALIZED") + "\r\n"

	agg := AggregateMonth("2022-01", text)
	p, ok := agg.Lookup("A1")
	if !ok || p.Price != `"100"` {
		t.Errorf("Lookup(A1) = %+v, %v", p, ok)
	}
}

func TestBuildMonth(t *testing.T) {
	raw := lines(
		line("A1", "Milk", 100, "2022-01-05", "FINALIZED"),
		line("A1", "Milk", 100, "2022-01-06", "CANCELLED"),
		line("B2", "Bread", 50, "2022-01-07", "PENDING"),
		"broken;line",
	)

	mr := BuildMonth("2022-01", raw, source.DefaultStatuses)
	if mr.Aggregate.Len() != 1 {
		t.Errorf("products = %d, want 1", mr.Aggregate.Len())
	}
	if a1, _ := mr.Aggregate.Lookup("A1"); a1.Count != 1 {
		t.Errorf("A1 Count = %d, want 1 (cancelled line excluded)", a1.Count)
	}
	if mr.Stats.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", mr.Stats.Malformed)
	}
	if mr.Stats.Rejected != 2 {
		t.Errorf("Rejected = %d, want 2", mr.Stats.Rejected)
	}
	if mr.Bytes != len(raw) {
		t.Errorf("Bytes = %d, want %d", mr.Bytes, len(raw))
	}
}
