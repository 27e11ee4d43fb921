// Package daemon provides the long-running service that recomputes the
// index periodically and serves it over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/canasta/internal/logger"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/source"
	"github.com/theirongolddev/canasta/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Gateway      source.Gateway
	Request      pipeline.Request
	Store        *store.Cache  // optional; changed series are saved as runs
	MonthMaxAge  time.Duration // > 0 serves months younger than this from Store
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact index state for status/event payloads.
type Snapshot struct {
	At          time.Time `json:"at"`
	Months      int       `json:"months"`
	BasketSize  int       `json:"basket_size"`
	BaseTotal   string    `json:"base_total"`
	LastIPC     float64   `json:"last_ipc"`
	Accumulated float64   `json:"accumulated"`
	Malformed   int       `json:"malformed"`
	Summary     string    `json:"summary"`
	NoData      bool      `json:"no_data,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	BasketSize  int     `json:"basket_size"`
	Accumulated float64 `json:"accumulated"`
	NoData      bool    `json:"no_data_changed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.BasketSize == 0 &&
		d.Accumulated == 0 &&
		!d.NoData
}

// Event is emitted whenever the index snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Source          string    `json:"source"`
	Months          []string  `json:"months"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	LastRunID       string    `json:"last_run_id,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	lastRunID   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	log := logger.FromContext(ctx)

	snap, analysis, err := s.compute(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		log.Error().Err(err).Msg("daemon poll failed")
		return
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = snap.At
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: snap.At,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "index_delta",
				Timestamp: snap.At,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if !publish {
		log.Debug().Float64("accumulated", snap.Accumulated).Msg("index unchanged")
		return
	}

	s.publishEvent(ev)
	log.Info().Str("event", ev.Type).Float64("accumulated", snap.Accumulated).Int("basket", snap.BasketSize).Msg("index updated")

	if s.cfg.Store != nil && analysis != nil && !snap.NoData {
		run := store.NewRun(s.cfg.Request.Source, s.cfg.Request.Months, analysis.Series)
		if err := s.cfg.Store.SaveRun(run); err != nil {
			log.Warn().Err(err).Msg("saving run")
			return
		}
		s.mu.Lock()
		s.lastRunID = run.ID
		s.mu.Unlock()
	}
}

// compute loads every month and indexes it. A no-data outcome is a valid
// snapshot, not an error.
func (s *Service) compute(ctx context.Context) (Snapshot, *pipeline.Analysis, error) {
	var (
		result *pipeline.LoadResult
		err    error
	)
	if s.cfg.Store != nil && s.cfg.MonthMaxAge > 0 {
		result, err = pipeline.LoadWithCache(ctx, s.cfg.Gateway, s.cfg.Request, s.cfg.Store, s.cfg.MonthMaxAge, nil)
	} else {
		result, err = pipeline.Load(ctx, s.cfg.Gateway, s.cfg.Request, nil)
	}
	if err != nil {
		return Snapshot{}, nil, err
	}

	analysis, err := pipeline.Analyze(result.Aggregates())
	snap := Snapshot{
		At:        time.Now(),
		Months:    len(result.Months),
		Malformed: result.Malformed,
	}
	switch {
	case pipeline.IsNoData(err):
		snap.NoData = true
		snap.Summary = pipeline.NoDataMessage
		return snap, analysis, nil
	case err != nil:
		return Snapshot{}, nil, err
	}

	series := analysis.Series
	snap.BasketSize = series.BasketSize
	snap.BaseTotal = series.BaseTotal.String()
	snap.LastIPC = pipeline.BaseIPC
	if n := len(series.Points); n > 0 {
		snap.LastIPC = series.Points[n-1].IPC
	}
	snap.Accumulated = series.Accumulated
	snap.Summary = pipeline.FormatAccumulated(series.Accumulated)
	return snap, analysis, nil
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		BasketSize:  curr.BasketSize - prev.BasketSize,
		Accumulated: curr.Accumulated - prev.Accumulated,
		NoData:      curr.NoData != prev.NoData,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Source:          s.cfg.Request.Source,
		Months:          s.cfg.Request.Months,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		LastRunID:       s.lastRunID,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
