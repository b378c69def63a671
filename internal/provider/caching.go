package provider

import (
	"context"
	"sync"
	"time"

	"pairhunter/pkg/model"
)

type cacheEntry struct {
	series    *model.PriceSeries
	days      int
	fetchedAt time.Time
}

// CachingProvider wraps a Provider with an in-memory history cache.
// Used by the HTTP server, where overlapping screens hit the same symbols.
// Errors are never cached.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewCachingProvider creates a caching wrapper whose entries expire after ttl
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

// GetDailyHistory serves from cache when a fresh entry covers days
func (p *CachingProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	p.mu.Lock()
	e, ok := p.cache[symbol]
	p.mu.Unlock()
	if ok && e.days >= days && p.now().Sub(e.fetchedAt) < p.ttl {
		return e.series.Tail(days), nil
	}

	series, err := p.inner.GetDailyHistory(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[symbol] = cacheEntry{series: series, days: days, fetchedAt: p.now()}
	p.mu.Unlock()

	return series, nil
}

// Purge drops every entry
func (p *CachingProvider) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]cacheEntry)
}
