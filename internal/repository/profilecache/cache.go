// Package profilecache keeps recently read tenant profiles in process memory.
package profilecache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/domain"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
)

// repository is the decorated profile store (ISP).
type repository interface {
	Get(ctx context.Context, tenant string) (domprofile.Profile, error)
	Put(ctx context.Context, p domprofile.Profile) error
	Delete(ctx context.Context, tenant string) error
	List(ctx context.Context) ([]string, error)
}

// minSweepAt is the entry count that triggers the first sweep of expired entries.
const minSweepAt = 1024

type entry struct {
	profile  domprofile.Profile
	missing  bool
	expireAt time.Time
}

// Cache is a read-through profile cache. Missing profiles are cached too,
// since most tenants compile without one.
type Cache struct {
	inner      repository
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	sweepAt int
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner repository,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		inner:      inner,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
		now:        time.Now,
		entries:    make(map[string]entry),
		sweepAt:    minSweepAt,
	}
}

// Get returns a cached profile or loads it from the inner repository.
func (c *Cache) Get(ctx context.Context, tenant string) (domprofile.Profile, error) {
	if e, ok := c.lookup(tenant); ok {
		c.incCache("hit")
		if e.missing {
			return domprofile.Profile{}, domain.ErrProfileNotFound
		}
		return e.profile, nil
	}

	c.incCache("miss")

	p, err := c.inner.Get(ctx, tenant)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		c.store(tenant, entry{missing: true})
		return domprofile.Profile{}, err
	case err != nil:
		return domprofile.Profile{}, err
	}

	c.store(tenant, entry{profile: p})
	return p, nil
}

// Put writes through and drops the cached entry.
func (c *Cache) Put(ctx context.Context, p domprofile.Profile) error {
	defer c.Invalidate(p.Tenant())
	return c.inner.Put(ctx, p)
}

// Delete writes through and drops the cached entry.
func (c *Cache) Delete(ctx context.Context, tenant string) error {
	defer c.Invalidate(tenant)
	return c.inner.Delete(ctx, tenant)
}

// List is not cached.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	return c.inner.List(ctx)
}

// Invalidate forgets the cached profile of a tenant.
func (c *Cache) Invalidate(tenant string) {
	c.mu.Lock()
	delete(c.entries, tenant)
	c.mu.Unlock()
	c.logger.Debug("Profile cache entry dropped", zap.String("tenant", tenant))
}

func (c *Cache) lookup(tenant string) (entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[tenant]
	c.mu.RUnlock()
	if !ok {
		return entry{}, false
	}
	now := c.now()
	if now.Before(e.expireAt) {
		return e, true
	}

	c.mu.Lock()
	if cur, ok := c.entries[tenant]; ok && !now.Before(cur.expireAt) {
		delete(c.entries, tenant)
	}
	c.mu.Unlock()
	return entry{}, false
}

// store caches e. Once the map reaches sweepAt entries, expired entries of
// every tenant are dropped and the threshold moves to twice the survivors.
func (c *Cache) store(tenant string, e entry) {
	now := c.now()
	e.expireAt = now.Add(c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenant] = e
	if len(c.entries) < c.sweepAt {
		return
	}
	for k, v := range c.entries {
		if !now.Before(v.expireAt) {
			delete(c.entries, k)
		}
	}
	c.sweepAt = max(2*len(c.entries), minSweepAt)
}

func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
