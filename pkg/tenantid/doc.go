// Package tenantid defines the validated tenant identifier type used
// across the tenant isolation core.
//
// Every tenant-scoped code path starts with an identifier that, at some
// point, ends up in a database session variable read by row-security
// policies. This package is the single choke point that guarantees such
// a value is well-formed before any statement involving it is built:
//
//	id, err := tenantid.Parse(raw)
//	if err != nil {
//		// reject the request, never touch the database
//	}
//
// The grammar is fixed: one lowercase letter followed by exactly 24
// lowercase alphanumeric characters (e.g. "c1a2b3c4d5e6f7a8b9c0d1e2f").
// The match is anchored, so injection payloads that merely contain a
// valid-looking substring are rejected.
//
// Validation is enforced independently of driver-level parameter
// binding. Downstream packages (rls, tenantdb) re-check IDs they
// receive, so a hand-converted raw string still fails closed.
package tenantid
