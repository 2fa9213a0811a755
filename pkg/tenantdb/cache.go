package tenantdb

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/fleetkit/pkg/cache"
	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// DefaultCacheSize bounds the handle cache unless configured otherwise.
const DefaultCacheSize = 100

// HandleFactory builds a scoped handle for a tenant on cache miss.
type HandleFactory func(id tenantid.ID) (*ScopedStore, error)

// Handles memoizes one ScopedStore per tenant under a bounded LRU
// cache. It is meant to be constructed once at startup and passed to
// every consumer explicitly; there is no package-level instance, which
// keeps per-test isolation and multi-process reasoning simple.
//
// GetOrCreate is atomic per key: concurrent misses for the same tenant
// are collapsed into a single factory invocation through a singleflight
// group, and all callers receive the same handle instance. Eviction is
// bookkeeping only — a handle is cheap to rebuild — so evictions are
// logged at debug level and never surface as errors.
type Handles struct {
	factory HandleFactory
	lru     *cache.LRU[tenantid.ID, *ScopedStore]
	group   singleflight.Group
	log     *slog.Logger
}

// HandleOption configures a Handles cache.
type HandleOption func(*handleConfig)

type handleConfig struct {
	size    int
	log     *slog.Logger
	factory HandleFactory
}

// WithCacheSize bounds the cache at size entries. Non-positive values
// fall back to DefaultCacheSize.
func WithCacheSize(size int) HandleOption {
	return func(c *handleConfig) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithConfig applies environment-loaded settings.
func WithConfig(cfg Config) HandleOption {
	return func(c *handleConfig) {
		if cfg.CacheSize > 0 {
			c.size = cfg.CacheSize
		}
	}
}

// WithLogger routes eviction and anomaly logging through log.
func WithLogger(log *slog.Logger) HandleOption {
	return func(c *handleConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithFactory replaces the default handle factory. Useful in tests and
// when handles need extra composition.
func WithFactory(factory HandleFactory) HandleOption {
	return func(c *handleConfig) {
		if factory != nil {
			c.factory = factory
		}
	}
}

// NewHandles creates a handle cache whose default factory composes base
// with the scoping layer configured by reg.
func NewHandles(base Store, reg *Registry, opts ...HandleOption) *Handles {
	cfg := &handleConfig{
		size: DefaultCacheSize,
		log:  slog.Default(),
		factory: func(id tenantid.ID) (*ScopedStore, error) {
			return NewScopedStore(id, base, reg)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &Handles{
		factory: cfg.factory,
		lru:     cache.NewLRU[tenantid.ID, *ScopedStore](cfg.size),
		log:     cfg.log,
	}
	h.lru.OnEvict(func(id tenantid.ID, _ *ScopedStore) {
		h.log.Debug("scoped handle evicted from cache",
			slog.String("tenant_id", id.String()),
			slog.Int("cache_size", cfg.size),
		)
	})
	return h
}

// GetOrCreate returns the cached handle for id, constructing and
// inserting it first when absent. A hit promotes the entry to most
// recently used. The construct-and-insert path is serialized per key,
// so two concurrent misses for the same tenant share one factory call
// and one handle.
func (h *Handles) GetOrCreate(id tenantid.ID) (*ScopedStore, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %q", tenantid.ErrInvalidID, id.String())
	}

	if handle, ok := h.lru.Get(id); ok {
		return handle, nil
	}

	v, err, _ := h.group.Do(id.String(), func() (any, error) {
		// A concurrent winner may have inserted while this call waited
		// on the flight; the re-check keeps the factory single-shot.
		if handle, ok := h.lru.Get(id); ok {
			return handle, nil
		}
		handle, err := h.factory(id)
		if err != nil {
			return nil, err
		}
		h.lru.Put(id, handle)
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ScopedStore), nil
}

// Invalidate drops the cached handle for id, if any. A later
// GetOrCreate constructs a fresh handle. Call on tenant deletion or
// settings changes. Idempotent.
func (h *Handles) Invalidate(id tenantid.ID) {
	h.lru.Remove(id)
	h.group.Forget(id.String())
}

// InvalidateAll drops every cached handle.
func (h *Handles) InvalidateAll() {
	h.lru.Clear()
}

// Len returns the current number of cached handles.
func (h *Handles) Len() int {
	return h.lru.Len()
}

// Cap returns the cache capacity.
func (h *Handles) Cap() int {
	return h.lru.Cap()
}
