package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/canasta/internal/store"
)

func openStore(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "canasta.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadWithCache(t *testing.T) {
	cache := openStore(t)
	gw := testGateway()
	req := Request{Path: "/data.csv", Months: []string{"2022-01", "2022-02", "2022-03"}}

	first, err := LoadWithCache(context.Background(), gw, req, cache, time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Fetched != 3 || first.CacheHits != 0 {
		t.Errorf("first load fetched %d, hits %d; want 3, 0", first.Fetched, first.CacheHits)
	}

	second, err := LoadWithCache(context.Background(), gw, req, cache, time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.Fetched != 0 || second.CacheHits != 3 {
		t.Errorf("second load fetched %d, hits %d; want 0, 3", second.Fetched, second.CacheHits)
	}
	if n := gw.callCount(); n != 3 {
		t.Errorf("gateway calls = %d, want 3", n)
	}
	if second.Malformed != first.Malformed {
		t.Errorf("Malformed = %d, want %d from cache", second.Malformed, first.Malformed)
	}

	a1, err := Analyze(first.Aggregates())
	if err != nil {
		t.Fatal(err)
	}
	a2, err := Analyze(second.Aggregates())
	if err != nil {
		t.Fatal(err)
	}
	if a1.Series.Accumulated != a2.Series.Accumulated {
		t.Errorf("cached Accumulated = %v, want %v", a2.Series.Accumulated, a1.Series.Accumulated)
	}
}

func TestLoadWithCache_PartialAndStatuses(t *testing.T) {
	cache := openStore(t)
	gw := testGateway()

	req := Request{Path: "/data.csv", Months: []string{"2022-01"}}
	if _, err := LoadWithCache(context.Background(), gw, req, cache, 0, nil); err != nil {
		t.Fatal(err)
	}

	req.Months = []string{"2022-01", "2022-02"}
	result, err := LoadWithCache(context.Background(), gw, req, cache, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheHits != 1 || result.Fetched != 1 {
		t.Errorf("hits %d fetched %d, want 1 and 1", result.CacheHits, result.Fetched)
	}
	if !result.Months[0].Cached || result.Months[1].Cached {
		t.Errorf("Cached flags = %v, %v; want true, false", result.Months[0].Cached, result.Months[1].Cached)
	}

	// A different status set is a different cache entry.
	req.AllowedStatuses = []string{"CANCELLED"}
	result, err = LoadWithCache(context.Background(), gw, req, cache, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheHits != 0 {
		t.Errorf("hits = %d, want 0 for new status set", result.CacheHits)
	}
	if !result.Months[0].Aggregate.Has("C3") {
		t.Error("C3 missing under CANCELLED filter")
	}
}

func TestLoadWithCache_Stale(t *testing.T) {
	cache := openStore(t)
	gw := testGateway()
	req := Request{Path: "/data.csv", Months: []string{"2022-01"}}

	key := monthKey(req, "2022-01")
	err := cache.SaveMonth(key, store.MonthRecord{
		Aggregate: AggregateMonth("2022-01", ""),
		FetchedAt: time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := LoadWithCache(context.Background(), gw, req, cache, 24*time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Fetched != 1 {
		t.Errorf("Fetched = %d, want 1 (stale entry refetched)", result.Fetched)
	}
	if result.Months[0].Aggregate.Len() != 2 {
		t.Errorf("products = %d, want 2 from fresh fetch", result.Months[0].Aggregate.Len())
	}
}
