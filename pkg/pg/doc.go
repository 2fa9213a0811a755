// Package pg bootstraps the PostgreSQL layer the tenant isolation core
// runs on: a pgx/v5 connection pool with retrying startup, goose schema
// migrations (which install the row-security policies), a health check
// closure, and error classification helpers.
//
// Typical startup:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// The error helpers classify driver errors without string matching:
// IsDuplicateKeyError, IsForeignKeyViolationError, IsNotFoundError, and
// IsRowSecurityError. The last one deserves attention in this codebase:
// it fires when a row-security policy rejects a statement, which means
// the application-layer tenant scoping failed and the database's
// independent layer caught it. Log it loudly.
package pg
