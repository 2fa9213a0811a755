// Package tenant carries the resolved caller identity — user, tenant,
// super-admin flag — from the authentication layer into the tenant
// isolation core.
//
// The package deliberately does not authenticate anything. The
// authentication collaborator supplies a Resolver; the middleware runs
// it once per request, validates the tenant identifier shape, and
// stores the Identity in the request context where the data layer picks
// it up:
//
//	mw := tenant.Middleware(sessionResolver, nil)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		identity := tenant.MustFromContext(r.Context())
//		err := rls.WithTenant(r.Context(), pool, identity.TenantID, identity.SuperAdmin, ...)
//		...
//	}
//
// LoggerExtractor plugs into the logger package so every log record
// emitted under a tenant-scoped request carries its tenant_id.
package tenant
