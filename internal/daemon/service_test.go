package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/store"
)

type stubGateway struct {
	mu     sync.Mutex
	prices map[string]int
	err    error
	calls  int
}

func (g *stubGateway) FetchMonth(_ context.Context, _, month string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	p, ok := g.prices[month]
	if !ok {
		return "", nil
	}
	return fmt.Sprintf("A1;Milk;\"%d\";1;%s-05;\"FINALIZED\"\n", p, month), nil
}

func (g *stubGateway) set(month string, price int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[month] = price
}

func newTestService(t *testing.T, gw *stubGateway, st *store.Cache) *Service {
	t.Helper()
	return New(Config{
		Gateway: gw,
		Request: pipeline.Request{
			Path:   "/data.csv",
			Months: []string{"2022-01", "2022-02"},
			Source: "file:///data.csv",
		},
		Store:        st,
		Interval:     time.Minute,
		EventsBuffer: 10,
	})
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{BasketSize: 10, Accumulated: 4.5}
	curr := Snapshot{BasketSize: 12, Accumulated: 5.25}

	delta := diffSnapshots(prev, curr)
	if delta.BasketSize != 2 {
		t.Fatalf("BasketSize delta = %d, want 2", delta.BasketSize)
	}
	if math.Abs(delta.Accumulated-0.75) > 1e-9 {
		t.Fatalf("Accumulated delta = %.4f, want 0.75", delta.Accumulated)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     time.Minute,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceEvents(t *testing.T) {
	gw := &stubGateway{prices: map[string]int{"2022-01": 100, "2022-02": 110}}
	st, err := store.Open(filepath.Join(t.TempDir(), "canasta.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close() }()

	s := newTestService(t, gw, st)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged, no event
	gw.set("2022-02", 120)
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	runID := s.lastRunID
	s.mu.RUnlock()

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != "snapshot" || events[1].Type != "index_delta" {
		t.Errorf("event types = %s, %s", events[0].Type, events[1].Type)
	}
	if math.Abs(events[1].Delta.Accumulated-10) > 1e-9 {
		t.Errorf("Accumulated delta = %v, want 10", events[1].Delta.Accumulated)
	}
	if events[1].Snapshot.Summary != "Inflación acumulada: 20.0000%" {
		t.Errorf("Summary = %q", events[1].Snapshot.Summary)
	}

	runs, err := st.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("saved runs = %d, want 2 (one per change)", len(runs))
	}
	if runID == "" {
		t.Error("lastRunID not set")
	}
}

func TestPollOnceMonthCache(t *testing.T) {
	gw := &stubGateway{prices: map[string]int{"2022-01": 100, "2022-02": 110}}
	st, err := store.Open(filepath.Join(t.TempDir(), "canasta.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close() }()

	s := newTestService(t, gw, st)
	s.cfg.MonthMaxAge = time.Hour
	ctx := context.Background()

	s.pollOnce(ctx)
	gw.set("2022-02", 120)
	s.pollOnce(ctx)

	gw.mu.Lock()
	calls := gw.calls
	gw.mu.Unlock()
	if calls != 2 {
		t.Errorf("gateway calls = %d, want 2 (second poll served from the store)", calls)
	}

	status := s.snapshotStatus()
	if status.Summary.Summary != "Inflación acumulada: 10.0000%" {
		t.Errorf("Summary = %q, want the cached 10%%", status.Summary.Summary)
	}
}

func TestPollOnceNoData(t *testing.T) {
	gw := &stubGateway{prices: map[string]int{"2022-01": 100}}
	s := newTestService(t, gw, nil)

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if !st.Summary.NoData {
		t.Error("NoData = false, want true when basket is empty")
	}
	if st.Summary.Summary != pipeline.NoDataMessage {
		t.Errorf("Summary = %q", st.Summary.Summary)
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want none", st.LastError)
	}
}

func TestPollOnceError(t *testing.T) {
	gw := &stubGateway{err: errors.New("ssh down")}
	s := newTestService(t, gw, nil)

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError == "" {
		t.Error("LastError empty after failed poll")
	}
	if st.PollCount != 1 {
		t.Errorf("PollCount = %d, want 1", st.PollCount)
	}
}

func TestHandlers(t *testing.T) {
	gw := &stubGateway{prices: map[string]int{"2022-01": 100, "2022-02": 110}}
	s := newTestService(t, gw, nil)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	var st Status
	err = json.NewDecoder(resp.Body).Decode(&st)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if st.Summary.BasketSize != 1 {
		t.Errorf("BasketSize = %d, want 1", st.Summary.BasketSize)
	}
	if len(st.Months) != 2 {
		t.Errorf("Months = %v", st.Months)
	}

	resp, err = http.Get(srv.URL + "/v1/events")
	if err != nil {
		t.Fatal(err)
	}
	var events []Event
	err = json.NewDecoder(resp.Body).Decode(&events)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}
