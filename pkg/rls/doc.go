// Package rls propagates the tenant trust anchor to PostgreSQL so that
// row-level security policies enforce tenant isolation independently of
// application-layer query scoping.
//
// The anchor is a pair of session variables: "app.tenant_id" holds the
// validated tenant identifier and "app.is_super_admin" holds "true" or
// "false". Policies created by the schema migrations compare each row's
// tenant column against current_setting('app.tenant_id') and bypass the
// check only for super-admin sessions. The application writes the pair,
// the database reads it; neither side trusts the other to be the only
// line of defense.
//
// Because the anchor lives on the database session, it must be asserted
// on the same connection that runs the scoped statements, and it must be
// re-asserted on every pool checkout — a pooled connection may carry a
// previous, unrelated tenant's anchor. WithTenant packages the whole
// discipline:
//
//	err := rls.WithTenant(ctx, pool, identity.TenantID, identity.SuperAdmin,
//		func(ctx context.Context, conn *pgxpool.Conn) error {
//			handle, err := handles.GetOrCreate(identity.TenantID)
//			if err != nil {
//				return err
//			}
//			_, err = handle.FindMany(ctx, conn, "vehicles", nil)
//			return err
//		})
//
// Identifiers are validated by pkg/tenantid before any statement is
// built; SetTenantContext re-checks and fails closed on anything that
// does not satisfy the grammar, independent of the driver's parameter
// binding.
package rls
