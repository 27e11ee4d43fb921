package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/canasta/internal/logger"
	"github.com/theirongolddev/canasta/internal/model"
	"github.com/theirongolddev/canasta/internal/source"
)

// Request describes which months to load and how to filter them.
type Request struct {
	Path            string   // transactions file on the gateway side
	Months          []string // date patterns, base month first
	AllowedStatuses []string // defaults to source.DefaultStatuses
	Workers         int      // concurrent fetches; <= 0 picks GOMAXPROCS

	// Source identifies the data source in the cache (host + path).
	// Defaults to Path.
	Source string
}

func (r Request) statuses() []string {
	if len(r.AllowedStatuses) == 0 {
		return source.DefaultStatuses
	}
	return r.AllowedStatuses
}

func (r Request) sourceKey() string {
	if r.Source != "" {
		return r.Source
	}
	return r.Path
}

// LoadResult holds the months of a request in request order.
type LoadResult struct {
	Months    []MonthResult
	Fetched   int
	CacheHits int
	Malformed int
}

// Aggregates returns the month aggregates in request order.
func (r *LoadResult) Aggregates() []model.MonthAggregate {
	out := make([]model.MonthAggregate, len(r.Months))
	for i, m := range r.Months {
		out[i] = m.Aggregate
	}
	return out
}

// ProgressFunc is called during loading to report progress.
// current is the number of months fetched so far, total is the number to fetch.
type ProgressFunc func(current, total int)

// Load fetches every requested month through gw and aggregates it. Fetches
// run on a bounded worker pool; the first failure cancels the rest and is
// returned as a *source.GatewayError.
func Load(ctx context.Context, gw source.Gateway, req Request, progressFn ProgressFunc) (*LoadResult, error) {
	texts, err := fetchAll(ctx, gw, req, req.Months, progressFn)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Fetched: len(req.Months)}
	for i, month := range req.Months {
		mr := BuildMonth(month, texts[i], req.statuses())
		result.Malformed += mr.Stats.Malformed
		result.Months = append(result.Months, mr)
	}
	return result, nil
}

// fetchAll runs FetchMonth for each month and returns the texts in month order.
func fetchAll(ctx context.Context, gw source.Gateway, req Request, months []string, progressFn ProgressFunc) ([]string, error) {
	if len(months) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.FromContext(ctx)

	numWorkers := req.Workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(months) {
		numWorkers = len(months)
	}

	work := make(chan int, len(months))
	texts := make([]string, len(months))
	errs := make([]error, len(months))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range months {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				month := months[idx]
				if err := ctx.Err(); err != nil {
					errs[idx] = &source.GatewayError{Month: month, Path: req.Path, Err: err}
					continue
				}

				start := time.Now()
				log.Debug().Str("month", month).Msg("fetching month")
				text, err := gw.FetchMonth(ctx, req.Path, month)
				if err != nil {
					errs[idx] = asGatewayError(err, month, req.Path)
					cancel()
					continue
				}
				texts[idx] = text
				log.Debug().
					Str("month", month).
					Int("bytes", len(text)).
					Dur("took", time.Since(start)).
					Msg("fetched month")

				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(months))
				}
			}
		}()
	}

	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return texts, nil
}

func asGatewayError(err error, month, path string) error {
	var gwErr *source.GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return &source.GatewayError{Month: month, Path: path, Err: err}
}

// firstError prefers the failure that caused cancellation over the
// cancellations it triggered.
func firstError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
