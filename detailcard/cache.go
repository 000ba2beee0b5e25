package detailcard

import (
	"context"
	"strings"
	"sync"
	"time"

	"trip-letter/models"
)

// CardCache is the in-process detail card cache. It is an interface so the
// backing store can become a shared cache without touching calling code;
// the default map implementation is local to one running instance and
// multiple instances will not share entries.
type CardCache interface {
	Get(key string) (*models.ActivityDetailCard, bool)
	Set(key string, card *models.ActivityDetailCard)
	SweepExpired()
}

// CacheKey is lowercase(destination):lowercase(title).
func CacheKey(destination, title string) string {
	return strings.ToLower(strings.TrimSpace(destination)) + ":" + strings.ToLower(strings.TrimSpace(title))
}

type cacheEntry struct {
	card     *models.ActivityDetailCard
	storedAt time.Time
}

// MemoryCache is the default TTL-bound map cache. Expiry is checked
// lazily on read; SweepExpired offers a periodic cleanup.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key string) (*models.ActivityDetailCard, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.card, true
}

func (c *MemoryCache) Set(key string, card *models.ActivityDetailCard) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{card: card, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *MemoryCache) SweepExpired() {
	now := c.now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// SweepLoop runs SweepExpired at the given interval until the context is
// cancelled.
func (c *MemoryCache) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepExpired()
		}
	}
}
