package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/canasta/internal/source"
)

func testGateway() *fakeGateway {
	return &fakeGateway{texts: map[string]string{
		"2022-01": lines(
			line("A1", "Milk", 100, "2022-01-05", "FINALIZED"),
			line("B2", "Bread", 50, "2022-01-06", "AUTHORIZED"),
			line("C3", "Eggs", 200, "2022-01-07", "CANCELLED"),
		),
		"2022-02": lines(
			line("A1", "Milk", 105, "2022-02-05", "FINALIZED"),
			line("B2", "Bread", 55, "2022-02-06", "FINALIZED"),
			"bad",
		),
		"2022-03": lines(
			line("A1", "Milk", 121, "2022-03-05", "FINALIZED"),
			line("B2", "Bread", 44, "2022-03-06", "FINALIZED"),
		),
	}}
}

func TestLoad(t *testing.T) {
	gw := testGateway()
	req := Request{Path: "/data.csv", Months: []string{"2022-01", "2022-02", "2022-03"}, Workers: 2}

	var calls atomic.Int64
	result, err := Load(context.Background(), gw, req, func(current, total int) {
		calls.Add(1)
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Months) != 3 {
		t.Fatalf("months = %d, want 3", len(result.Months))
	}
	for i, want := range req.Months {
		if got := result.Months[i].Aggregate.Month; got != want {
			t.Errorf("Months[%d] = %s, want %s (request order)", i, got, want)
		}
	}
	if result.Months[0].Aggregate.Has("C3") {
		t.Error("cancelled line aggregated")
	}
	if result.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", result.Malformed)
	}
	if result.Fetched != 3 {
		t.Errorf("Fetched = %d, want 3", result.Fetched)
	}
	if calls.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", calls.Load())
	}

	a, err := Analyze(result.Aggregates())
	if err != nil {
		t.Fatal(err)
	}
	if a.Series.BasketSize != 2 {
		t.Errorf("BasketSize = %d, want 2", a.Series.BasketSize)
	}
	// Totals: 150, 160, 165.
	if got := FormatAccumulated(a.Series.Accumulated); got != "Inflación acumulada: 9.7917%" {
		t.Errorf("output = %q", got)
	}
}

func TestLoad_GatewayFailure(t *testing.T) {
	gw := testGateway()
	boom := errors.New("connection reset")
	gw.errs = map[string]error{"2022-02": boom}

	req := Request{Path: "/data.csv", Months: []string{"2022-01", "2022-02", "2022-03"}, Workers: 1}
	_, err := Load(context.Background(), gw, req, nil)

	var gwErr *source.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want *source.GatewayError", err)
	}
	if gwErr.Month != "2022-02" {
		t.Errorf("Month = %s, want 2022-02", gwErr.Month)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err does not wrap cause: %v", err)
	}
	// One worker: the third month is never fetched once the second fails.
	if n := gw.callCount(); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, testGateway(), Request{Path: "/data.csv", Months: []string{"2022-01"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoad_NoMonths(t *testing.T) {
	result, err := Load(context.Background(), testGateway(), Request{Path: "/data.csv"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Months) != 0 {
		t.Errorf("months = %d, want 0", len(result.Months))
	}
	if _, err := Analyze(result.Aggregates()); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("Analyze err = %v, want ErrEmptySeries", err)
	}
}

func TestLoad_EmptyMonthText(t *testing.T) {
	gw := testGateway()
	req := Request{Path: "/data.csv", Months: []string{"2022-01", "2023-07"}}

	result, err := Load(context.Background(), gw, req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Months[1].Aggregate.Len() != 0 {
		t.Errorf("2023-07 products = %d, want 0", result.Months[1].Aggregate.Len())
	}
	if _, err := Analyze(result.Aggregates()); !errors.Is(err, ErrEmptyBasket) {
		t.Errorf("Analyze err = %v, want ErrEmptyBasket", err)
	}
}

func TestFirstError(t *testing.T) {
	cause := errors.New("cause")
	errs := []error{
		&source.GatewayError{Month: "2022-01", Err: context.Canceled},
		nil,
		&source.GatewayError{Month: "2022-03", Err: cause},
	}
	if got := firstError(errs); !errors.Is(got, cause) {
		t.Errorf("firstError = %v, want the non-cancellation error", got)
	}
	if got := firstError([]error{nil, nil}); got != nil {
		t.Errorf("firstError(nil...) = %v, want nil", got)
	}
}
