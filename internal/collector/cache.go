package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BarStore persists fetched bars between processes.
type BarStore interface {
	// Load returns the stored bars and when they were written. A missing
	// entry returns core.ErrNoData.
	Load(symbol, period string) ([]core.OHLCV, time.Time, error)
	Save(symbol, period string, bars []core.OHLCV) error
}

type cacheEntry struct {
	bars      []core.OHLCV
	fetchedAt time.Time
}

// Cache wraps a provider with an in-memory cache and an optional on-disk
// store. Concurrent requests for the same key share one upstream fetch, and
// every caller gets the same slice, which must be treated as read-only.
type Cache struct {
	provider HistoryProvider
	store    BarStore
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
	onLookup func(hit bool)

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStore adds a write-through on-disk store.
func WithStore(store BarStore) CacheOption {
	return func(c *Cache) { c.store = store }
}

// WithTTL sets how long fetched bars stay fresh. Zero keeps them forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLookupHook calls fn on every lookup with whether it was served from memory.
func WithLookupHook(fn func(hit bool)) CacheOption {
	return func(c *Cache) { c.onLookup = fn }
}

// NewCache wraps provider.
func NewCache(provider HistoryProvider, opts ...CacheOption) *Cache {
	c := &Cache{
		provider: provider,
		logger:   zap.NewNop(),
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Name() string {
	return c.provider.Name()
}

func cacheKey(symbol, period string) string {
	return symbol + "|" + period
}

func (c *Cache) fresh(fetchedAt time.Time) bool {
	return c.ttl <= 0 || c.now().Sub(fetchedAt) < c.ttl
}

// FetchHistory returns cached bars when fresh, otherwise loads them from the
// store or the provider.
func (c *Cache) FetchHistory(ctx context.Context, symbol, period string) ([]core.OHLCV, error) {
	key := cacheKey(symbol, period)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	hit := ok && c.fresh(entry.fetchedAt)
	if c.onLookup != nil {
		c.onLookup(hit)
	}
	if hit {
		return entry.bars, nil
	}

	// The shared load outlives any one caller; each caller waits on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), symbol, period)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]core.OHLCV), nil
	}
}

func (c *Cache) load(ctx context.Context, symbol, period string) ([]core.OHLCV, error) {
	if c.store != nil {
		bars, writtenAt, err := c.store.Load(symbol, period)
		if err == nil && len(bars) > 0 && c.fresh(writtenAt) {
			c.logger.Debug("bars loaded from store",
				zap.String("symbol", symbol),
				zap.String("period", period),
				zap.Int("bars", len(bars)),
			)
			return c.remember(symbol, period, bars, writtenAt), nil
		}
	}

	bars, err := c.provider.FetchHistory(ctx, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	bars = Normalize(bars)

	if c.store != nil && len(bars) > 0 {
		if err := c.store.Save(symbol, period, bars); err != nil {
			c.logger.Warn("failed to store bars",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}
	return c.remember(symbol, period, bars, c.now()), nil
}

func (c *Cache) remember(symbol, period string, bars []core.OHLCV, at time.Time) []core.OHLCV {
	bars = bars[:len(bars):len(bars)]
	c.mu.Lock()
	c.entries[cacheKey(symbol, period)] = cacheEntry{bars: bars, fetchedAt: at}
	c.mu.Unlock()
	return bars
}

// Invalidate drops every cached entry of symbol.
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) > len(symbol) && key[:len(symbol)+1] == symbol+"|" {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
