// Package tenantdb scopes every data-access operation to a single
// tenant at the application layer, as the first of two independent
// isolation layers (the second being database row security, see
// package rls).
//
// # Building blocks
//
// Registry enumerates entities explicitly. Scoping is opt-in per entity
// type, never "all entities by default": tenant-owned entities carry the
// column the tenant anchor is merged into, platform-level entities are
// registered as passthrough, and anything unregistered fails closed on
// every operation.
//
// Store is the generic operation surface (find-many, find-one,
// find-first, create, update, update-many, delete, delete-many, count,
// aggregate) over map-shaped filters and records. PGStore implements it
// on PostgreSQL via pgx and squirrel.
//
// ScopedStore wraps a base Store and is permanently bound to one tenant
// identifier at construction. Reads, updates, deletes, counts and
// aggregates get the tenant predicate ANDed into their filter with any
// caller-supplied tenant column scrubbed at every nesting depth, so a
// nested $or can never widen the match across tenants. Creates and
// updates get the tenant column force-set in the payload. The wrapper
// never trusts caller-supplied tenant fields.
//
// Handles memoizes one ScopedStore per tenant under a bounded LRU
// cache. Construction on miss is atomic per key: concurrent misses for
// the same tenant observe a single factory invocation and share the
// resulting handle.
//
// # Usage
//
//	reg := tenantdb.DefaultRegistry()
//	handles := tenantdb.NewHandles(tenantdb.NewPGStore(), reg,
//		tenantdb.WithCacheSize(cfg.CacheSize),
//		tenantdb.WithLogger(log),
//	)
//
//	err := rls.WithTenant(ctx, pool, id, false, func(ctx context.Context, conn *pgxpool.Conn) error {
//		h, err := handles.GetOrCreate(id)
//		if err != nil {
//			return err
//		}
//		vehicles, err := h.FindMany(ctx, conn, "vehicles", tenantdb.Filter{"status": "active"})
//		...
//	})
//
// Handles own no connection, only behavior; each operation takes the
// session the caller anchored, which keeps the cached handle valid
// across arbitrary pool checkouts.
package tenantdb
