package tenantdb

// Config holds the tunable knobs of the tenant data layer.
type Config struct {
	// CacheSize bounds the scoped-handle cache. One entry per tenant
	// with recent traffic; sizing it near the active-tenant count keeps
	// handle construction off the hot path.
	CacheSize int `env:"TENANTDB_CACHE_SIZE" envDefault:"100"`
}
