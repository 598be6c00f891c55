package linkcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache stores verification results between runs and delivers broken-link
// events. The NATS-backed implementation shares results across machines;
// MemoryCache scopes them to the current process.
type Cache interface {
	Get(ctx context.Context, url string) (*CacheEntry, error)
	Set(ctx context.Context, entry *CacheEntry) error
	Valid(entry *CacheEntry) bool
	PublishBroken(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// MemoryCache is the fallback Cache when no NATS URL is configured.
// Broken-link events are logged instead of published.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]*CacheEntry
	ttl         time.Duration
	ttlFailures time.Duration
}

// NewMemoryCache creates an in-memory cache with per-outcome TTLs.
func NewMemoryCache(ttl, ttlFailures time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:     make(map[string]*CacheEntry),
		ttl:         ttl,
		ttlFailures: ttlFailures,
	}
}

func (c *MemoryCache) Get(_ context.Context, url string) (*CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[url]
	if !ok {
		return nil, nil // Not cached
	}
	cp := *entry
	return &cp, nil
}

func (c *MemoryCache) Set(_ context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *entry
	cp.LastChecked = time.Now()
	c.entries[entry.URL] = &cp
	return nil
}

func (c *MemoryCache) Valid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := c.ttl
	if !entry.IsValid {
		ttl = c.ttlFailures
	}
	return time.Since(entry.LastChecked) < ttl
}

func (c *MemoryCache) PublishBroken(_ context.Context, event *BrokenLinkEvent) error {
	slog.Warn("Broken link detected",
		slog.String("url", event.URL),
		slog.String("doc", event.Doc),
		slog.Int("status", event.Status),
		slog.String("error", event.Error))
	return nil
}

func (c *MemoryCache) Close() error { return nil }
