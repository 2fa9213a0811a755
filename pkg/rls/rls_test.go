package rls_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fleetkit/pkg/rls"
	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

const validTenant = tenantid.ID("k7m9p2q4r6s8t1u3v5w7x9y2z")

// sessionCall records one statement issued against the fake session.
type sessionCall struct {
	sql  string
	args []any
}

// fakeRow satisfies pgx.Row by scanning canned values.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.values) {
			break
		}
		if s, ok := d.(*string); ok {
			*s = r.values[i].(string)
		}
	}
	return nil
}

// fakeSession captures SQL traffic and plays back configured responses.
type fakeSession struct {
	calls   []sessionCall
	execErr error
	row     fakeRow
}

func (s *fakeSession) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, sessionCall{sql: sql, args: args})
	return pgconn.CommandTag{}, s.execErr
}

func (s *fakeSession) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	s.calls = append(s.calls, sessionCall{sql: sql, args: args})
	return &s.row
}

var _ rls.Querier = (*fakeSession)(nil)

func TestSetTenantContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("anchors tenant and super-admin flag", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{}
		require.NoError(t, rls.SetTenantContext(ctx, session, validTenant, false))

		require.Len(t, session.calls, 1)
		call := session.calls[0]
		assert.Contains(t, call.sql, "set_config")
		assert.Equal(t, []any{
			rls.TenantKey, validTenant.String(),
			rls.SuperAdminKey, "false",
		}, call.args)
	})

	t.Run("super-admin flag is passed through", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{}
		require.NoError(t, rls.SetTenantContext(ctx, session, validTenant, true))
		assert.Equal(t, "true", session.calls[0].args[3])
	})

	t.Run("identifier travels as a parameter, never in SQL text", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{}
		require.NoError(t, rls.SetTenantContext(ctx, session, validTenant, false))
		assert.NotContains(t, session.calls[0].sql, validTenant.String())
	})

	t.Run("invalid id is rejected before any statement", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{
			"",
			"UPPER1111111111111111111A",
			"short",
			"k7m9p2q4r6s8t1u3v5w7x9y2z'; DROP POLICY tenant_isolation;--",
		} {
			session := &fakeSession{}
			err := rls.SetTenantContext(ctx, session, tenantid.ID(raw), false)
			require.ErrorIs(t, err, rls.ErrSetContextFailed, raw)
			require.ErrorIs(t, err, tenantid.ErrInvalidID, raw)
			assert.Empty(t, session.calls, "no SQL may be issued for %q", raw)
		}
	})

	t.Run("exec failure is fatal and wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		session := &fakeSession{execErr: boom}
		err := rls.SetTenantContext(ctx, session, validTenant, false)
		require.ErrorIs(t, err, rls.ErrSetContextFailed)
		require.ErrorIs(t, err, boom)
	})
}

func TestTenantContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reads back the anchored tenant", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{row: fakeRow{values: []any{validTenant.String()}}}
		id, err := rls.TenantContext(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, validTenant, id)

		call := session.calls[0]
		assert.Contains(t, call.sql, "current_setting")
		assert.Equal(t, []any{rls.TenantKey}, call.args)
	})

	t.Run("unset anchor reads as zero without error", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{row: fakeRow{values: []any{""}}}
		id, err := rls.TenantContext(ctx, session)
		require.NoError(t, err)
		assert.True(t, id.IsZero())
	})

	t.Run("corrupted anchor surfaces as invalid id", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{row: fakeRow{values: []any{"not-a-tenant"}}}
		_, err := rls.TenantContext(ctx, session)
		require.ErrorIs(t, err, tenantid.ErrInvalidID)
	})

	t.Run("read failure is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		session := &fakeSession{row: fakeRow{err: boom}}
		_, err := rls.TenantContext(ctx, session)
		require.ErrorIs(t, err, rls.ErrReadContextFailed)
		require.ErrorIs(t, err, boom)
	})
}

func TestSuperAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set flag reads true", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{row: fakeRow{values: []any{"true"}}}
		admin, err := rls.SuperAdmin(ctx, session)
		require.NoError(t, err)
		assert.True(t, admin)
		assert.Equal(t, []any{rls.SuperAdminKey}, session.calls[0].args)
	})

	t.Run("unset flag fails closed to false", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{row: fakeRow{values: []any{""}}}
		admin, err := rls.SuperAdmin(ctx, session)
		require.NoError(t, err)
		assert.False(t, admin)
	})

	t.Run("read failure is wrapped", func(t *testing.T) {
		t.Parallel()

		session := &fakeSession{row: fakeRow{err: errors.New("closed")}}
		_, err := rls.SuperAdmin(ctx, session)
		require.ErrorIs(t, err, rls.ErrReadContextFailed)
	})
}
