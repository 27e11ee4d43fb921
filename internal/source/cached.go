package source

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedGateway memoizes fetches of another Gateway for a fixed TTL.
// Failed fetches are not cached.
type CachedGateway struct {
	next  Gateway
	cache *gocache.Cache
}

// NewCachedGateway wraps next with an in-memory cache.
func NewCachedGateway(next Gateway, ttl time.Duration) *CachedGateway {
	return &CachedGateway{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// FetchMonth implements Gateway.
func (g *CachedGateway) FetchMonth(ctx context.Context, path, datePattern string) (string, error) {
	key := path + "\x00" + datePattern
	if v, ok := g.cache.Get(key); ok {
		if text, ok := v.(string); ok {
			return text, nil
		}
	}

	text, err := g.next.FetchMonth(ctx, path, datePattern)
	if err != nil {
		return "", err
	}
	g.cache.Set(key, text, gocache.DefaultExpiration)
	return text, nil
}

// Flush drops every cached fetch.
func (g *CachedGateway) Flush() {
	g.cache.Flush()
}

// Len returns the number of cached fetches, expired ones included.
func (g *CachedGateway) Len() int {
	return g.cache.ItemCount()
}
