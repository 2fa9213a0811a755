package rls

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// Session variable names read by the row-security policies.
// They are session-scoped (set_config with is_local=false), so they
// survive transaction boundaries but not the connection itself.
const (
	TenantKey     = "app.tenant_id"
	SuperAdminKey = "app.is_super_admin"
)

// Querier is the minimal connection surface the propagator needs.
// *pgxpool.Pool, *pgxpool.Conn, *pgx.Conn and pgx.Tx all satisfy it,
// but only a dedicated connection or transaction gives the session
// guarantee; see SetTenantContext.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SetTenantContext writes the trust anchor for the given tenant onto the
// session of q: the tenant identifier under "app.tenant_id" and the
// super-admin flag under "app.is_super_admin". Row-security policies
// evaluated on later statements over the same session observe both.
//
// The identifier is re-validated even though the type system already
// discourages raw values; a zero or hand-converted ID fails with
// tenantid.ErrInvalidID before any statement is issued. Failures are
// fatal: a caller must not proceed to run scoped queries on q after an
// error, because the session would silently show nothing or, worse,
// whatever anchor a previous checkout left behind.
//
// q must represent a single session. Calling this on a *pgxpool.Pool
// directly is a bug: the pool routes each statement to an arbitrary
// connection, so the anchor and the queries it is meant to protect may
// land on different sessions. Use WithTenant, or acquire a connection
// and pass it here.
func SetTenantContext(ctx context.Context, q Querier, id tenantid.ID, superAdmin bool) error {
	if !id.Valid() {
		return errors.Join(ErrSetContextFailed, tenantid.ErrInvalidID)
	}

	_, err := q.Exec(ctx,
		`SELECT set_config($1, $2, false), set_config($3, $4, false)`,
		TenantKey, id.String(),
		SuperAdminKey, strconv.FormatBool(superAdmin),
	)
	if err != nil {
		return errors.Join(ErrSetContextFailed, err)
	}
	return nil
}

// TenantContext reads back the tenant identifier currently anchored on
// the session of q. It returns the zero ID (and no error) when the
// session variable has never been set, which is the expected state of a
// freshly checked-out connection.
func TenantContext(ctx context.Context, q Querier) (tenantid.ID, error) {
	var value string
	err := q.QueryRow(ctx,
		`SELECT COALESCE(current_setting($1, true), '')`,
		TenantKey,
	).Scan(&value)
	if err != nil {
		return "", errors.Join(ErrReadContextFailed, err)
	}
	if value == "" {
		return "", nil
	}
	return tenantid.Parse(value)
}

// SuperAdmin reads back the super-admin flag from the session of q.
// Unset means false: the anchor fails closed.
func SuperAdmin(ctx context.Context, q Querier) (bool, error) {
	var value string
	err := q.QueryRow(ctx,
		`SELECT COALESCE(current_setting($1, true), '')`,
		SuperAdminKey,
	).Scan(&value)
	if err != nil {
		return false, errors.Join(ErrReadContextFailed, err)
	}
	return value == "true", nil
}

// WithTenant acquires a connection from the pool, asserts the trust
// anchor for id on it, and runs fn with that connection. The anchor is
// asserted on every call, never assumed left over from a previous
// checkout: pooled connections are reused across unrelated tenants.
//
// The connection is released when fn returns. No anchor cleanup is
// performed on release; the next checkout re-asserts its own.
func WithTenant(
	ctx context.Context,
	pool *pgxpool.Pool,
	id tenantid.ID,
	superAdmin bool,
	fn func(ctx context.Context, conn *pgxpool.Conn) error,
) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return errors.Join(ErrAcquireFailed, err)
	}
	defer conn.Release()

	if err := SetTenantContext(ctx, conn, id, superAdmin); err != nil {
		return err
	}
	return fn(ctx, conn)
}
