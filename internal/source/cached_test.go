package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingGateway struct {
	calls atomic.Int64
	text  string
	err   error
}

func (g *countingGateway) FetchMonth(_ context.Context, _, _ string) (string, error) {
	g.calls.Add(1)
	return g.text, g.err
}

func TestCachedGateway_Memoizes(t *testing.T) {
	next := &countingGateway{text: "line\n"}
	g := NewCachedGateway(next, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := g.FetchMonth(context.Background(), "/data.csv", "2022-01")
		if err != nil {
			t.Fatal(err)
		}
		if got != "line\n" {
			t.Errorf("FetchMonth = %q, want line", got)
		}
	}
	if n := next.calls.Load(); n != 1 {
		t.Errorf("underlying calls = %d, want 1", n)
	}

	if _, err := g.FetchMonth(context.Background(), "/data.csv", "2022-02"); err != nil {
		t.Fatal(err)
	}
	if n := next.calls.Load(); n != 2 {
		t.Errorf("underlying calls after new month = %d, want 2", n)
	}

	g.Flush()
	if g.Len() != 0 {
		t.Errorf("Len after Flush = %d, want 0", g.Len())
	}
}

func TestCachedGateway_ErrorsNotCached(t *testing.T) {
	next := &countingGateway{err: errors.New("boom")}
	g := NewCachedGateway(next, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := g.FetchMonth(context.Background(), "/data.csv", "2022-01"); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := next.calls.Load(); n != 2 {
		t.Errorf("underlying calls = %d, want 2", n)
	}
}
