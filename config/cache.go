package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	uno "github.com/uno-serverless/uno-go"
)

// Fetcher retrieves the full configuration snapshot from a slow backend.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (map[string]string, error)

func (f FetcherFunc) Fetch(ctx context.Context) (map[string]string, error) { return f(ctx) }

// PageFetcher retrieves one page of configuration at a time. Backends that
// paginate batch reads implement this and get folded into a single snapshot
// by Paged.
type PageFetcher interface {
	FetchPage(ctx context.Context, token string) (values map[string]string, next string, err error)
}

// Paged adapts a paginated backend into a Fetcher by walking all pages and
// merging them, later pages winning on key collision.
func Paged(pf PageFetcher) Fetcher {
	return FetcherFunc(func(ctx context.Context) (map[string]string, error) {
		out := make(map[string]string)
		token := ""
		for {
			page, next, err := pf.FetchPage(ctx, token)
			if err != nil {
				return nil, err
			}
			for k, v := range page {
				out[k] = v
			}
			if next == "" {
				return out, nil
			}
			token = next
		}
	})
}

// Clock abstracts time for the cache, injected for tests.
type Clock func() time.Time

// Cached decorates a Fetcher with a TTL cache implementing Provider.
//
// Refresh is expressed as a single shared in-flight call: concurrent getters
// awaiting an expired or absent snapshot share one underlying fetch instead
// of duplicating it. Snapshot replacement is last-write-wins and tolerates
// concurrent readers during a refresh, which keep seeing the previous
// snapshot until the new one lands. Set overrides survive refreshes.
type Cached struct {
	src   Fetcher
	ttl   time.Duration
	clock Clock

	group singleflight.Group

	mu        sync.RWMutex
	snapshot  map[string]string
	overrides map[string]string
	fetchedAt time.Time
}

// CachedOpt configures a Cached provider.
type CachedOpt func(*Cached)

// WithClock injects the cache clock.
func WithClock(c Clock) CachedOpt {
	return func(cc *Cached) { cc.clock = c }
}

// NewCached creates a TTL-cached provider over a slow backend.
func NewCached(src Fetcher, ttl time.Duration, opts ...CachedOpt) *Cached {
	c := &Cached{
		src:       src,
		ttl:       ttl,
		clock:     time.Now,
		overrides: make(map[string]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached value for key, refreshing the snapshot first when
// it is absent or older than the TTL.
func (c *Cached) Get(ctx context.Context, key string, required bool) (string, error) {
	c.mu.RLock()
	if v, ok := c.overrides[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	snapshot, stale := c.snapshot, c.stale()
	c.mu.RUnlock()

	if snapshot == nil || stale {
		var err error
		snapshot, err = c.refresh(ctx)
		if err != nil {
			return "", err
		}
	}

	v, ok := snapshot[key]
	if !ok {
		return missing(key, required)
	}
	return v, nil
}

// Set records a local override, last-write-wins across invocations.
func (c *Cached) Set(key, value string) {
	c.mu.Lock()
	c.overrides[key] = value
	c.mu.Unlock()
}

// Invalidate drops the snapshot so the next Get refreshes.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cached) stale() bool {
	return c.ttl > 0 && c.clock().Sub(c.fetchedAt) > c.ttl
}

func (c *Cached) refresh(ctx context.Context) (map[string]string, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		// Re-check under the group: a caller that queued behind an
		// in-flight refresh finds a fresh snapshot here.
		c.mu.RLock()
		snapshot, stale := c.snapshot, c.stale()
		c.mu.RUnlock()
		if snapshot != nil && !stale {
			return snapshot, nil
		}

		fetched, err := c.src.Fetch(ctx)
		if err != nil {
			if _, ok := err.(uno.StatusCoder); ok {
				return nil, err
			}
			return nil, uno.ConfigurationError(fmt.Sprintf("config fetch failed: %s", err))
		}

		c.mu.Lock()
		c.snapshot = fetched
		c.fetchedAt = c.clock()
		c.mu.Unlock()

		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}
