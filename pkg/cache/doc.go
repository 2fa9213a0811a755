// Package cache provides a generic, bounded LRU cache used to memoize
// per-tenant resources without unbounded memory growth.
//
// The cache is safe for concurrent use; all operations serialize on an
// internal mutex. Get and Put both promote the touched key to most
// recently used, and an insert beyond capacity evicts exactly one entry.
//
//	c := cache.NewLRU[string, *Handle](100)
//	c.OnEvict(func(key string, h *Handle) {
//		log.Debug("handle evicted", "tenant_id", key)
//	})
//
//	if h, ok := c.Get(id); ok {
//		return h
//	}
//	c.Put(id, newHandle(id))
//
// Note that there is deliberately no get-or-create primitive here: a
// caller that needs atomic construction on miss should coordinate the
// factory itself (see tenantdb.Handles, which pairs this cache with a
// singleflight group).
package cache
