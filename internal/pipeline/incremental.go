package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/canasta/internal/logger"
	"github.com/theirongolddev/canasta/internal/source"
	"github.com/theirongolddev/canasta/internal/store"
)

// LoadWithCache serves months younger than maxAge from the store and fetches
// only the rest. Freshly fetched months are written back. maxAge <= 0 means
// cached months never expire.
func LoadWithCache(ctx context.Context, gw source.Gateway, req Request, cache *store.Cache, maxAge time.Duration, progressFn ProgressFunc) (*LoadResult, error) {
	log := logger.FromContext(ctx)
	now := time.Now()

	result := &LoadResult{Months: make([]MonthResult, len(req.Months))}

	var missing []int
	for i, month := range req.Months {
		rec, ok, err := cache.LoadMonth(monthKey(req, month))
		if err != nil {
			return nil, fmt.Errorf("reading cache: %w", err)
		}
		if !ok || (maxAge > 0 && now.Sub(rec.FetchedAt) > maxAge) {
			missing = append(missing, i)
			continue
		}
		result.Months[i] = MonthResult{
			Aggregate: rec.Aggregate,
			Stats: source.FilterStats{
				Lines:     rec.Lines,
				Kept:      rec.Kept,
				Rejected:  rec.Rejected,
				Malformed: rec.Malformed,
			},
			Bytes:  rec.Bytes,
			Cached: true,
		}
		result.CacheHits++
		log.Debug().Str("month", month).Time("fetched_at", rec.FetchedAt).Msg("month served from cache")
	}

	if len(missing) > 0 {
		months := make([]string, len(missing))
		for j, i := range missing {
			months[j] = req.Months[i]
		}

		texts, err := fetchAll(ctx, gw, req, months, progressFn)
		if err != nil {
			return nil, err
		}

		fetchedAt := time.Now()
		for j, i := range missing {
			mr := BuildMonth(months[j], texts[j], req.statuses())
			result.Months[i] = mr
			result.Fetched++

			err := cache.SaveMonth(monthKey(req, months[j]), store.MonthRecord{
				Aggregate: mr.Aggregate,
				Lines:     mr.Stats.Lines,
				Kept:      mr.Stats.Kept,
				Rejected:  mr.Stats.Rejected,
				Malformed: mr.Stats.Malformed,
				Bytes:     mr.Bytes,
				FetchedAt: fetchedAt,
			})
			if err != nil {
				log.Warn().Err(err).Str("month", months[j]).Msg("caching month")
			}
		}
	} else if progressFn != nil {
		progressFn(len(req.Months), len(req.Months))
	}

	for _, m := range result.Months {
		result.Malformed += m.Stats.Malformed
	}
	return result, nil
}

func monthKey(req Request, month string) store.MonthKey {
	return store.MonthKey{
		Source:   req.sourceKey(),
		Month:    month,
		Statuses: req.statuses(),
	}
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "canasta")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "canasta")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "canasta.db")
}
