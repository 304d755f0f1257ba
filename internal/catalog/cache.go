package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = time.Minute

// Cache keeps the fetched book set of each category for a TTL. Concurrent
// misses for one category share a single fetch; failures are not cached.
// Returned slices are shared and must not be modified.
type Cache struct {
	fetch Fetcher
	ttl   time.Duration
	now   func() time.Time
	log   logging.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]cacheEntry
	// gen counts invalidations. A fill started under an older gen is
	// handed to its waiters but never stored.
	gen uint64
}

type cacheEntry struct {
	books   []models.Book
	expires time.Time
}

func NewCache(fetch Fetcher, ttl time.Duration, log logging.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Cache{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(category models.Category) string {
	if category.IsAll() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(string(category)))
}

func (c *Cache) Books(ctx context.Context, category models.Category) ([]models.Book, error) {
	key := cacheKey(category)

	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		c.log.Debug(ctx, "catalog cache hit", "category", category)
		return e.books, nil
	}

	// requests after an invalidation must not join a fill started before it
	flight := strconv.FormatUint(gen, 10) + "/" + key
	v, err, shared := c.group.Do(flight, func() (any, error) {
		// one requester going away must not fail the others
		books, err := c.fetch.ListBooks(context.WithoutCancel(ctx), category)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = cacheEntry{books: books, expires: c.now().Add(c.ttl)}
		} else {
			c.log.Debug(ctx, "dropping catalog fill started before invalidation", "category", category)
		}
		c.mu.Unlock()
		return books, nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "catalog cache fill", "category", category, "shared", shared)
	return v.([]models.Book), nil
}

// Query fetches (or reuses) the set of q.Category and applies q.
func (c *Cache) Query(ctx context.Context, q Query) (Page, error) {
	books, err := c.Books(ctx, q.Category)
	if err != nil {
		return Apply(nil, q), err
	}
	return Apply(books, q), nil
}

// Invalidate drops every cached category. Admin edits call it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}
