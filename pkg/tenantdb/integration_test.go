package tenantdb_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fleetkit/pkg/pg"
	"github.com/dmitrymomot/fleetkit/pkg/rls"
	"github.com/dmitrymomot/fleetkit/pkg/tenantdb"
	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// setupPool connects to the database named by TEST_DATABASE_URL and
// applies migrations. Tests run against freshly generated tenant
// identifiers, so no cross-run cleanup is needed; rows are removed on
// test cleanup anyway to keep the database small.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, pg.Config{
		MigrationsPath:  "../../migrations",
		MigrationsTable: "schema_migrations",
	}, slog.Default()))

	return pool
}

func cleanupTenant(t *testing.T, pool *pgxpool.Pool, id tenantid.ID) {
	t.Helper()
	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"maintenance_records", "invoices", "drivers", "vehicles"} {
			_, err := pool.Exec(ctx, "DELETE FROM "+table+" WHERE tenant_id = $1", id.String())
			assert.NoError(t, err)
		}
	})
}

func TestIntegration_TenantIsolation(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	idA := tenantid.New()
	idB := tenantid.New()
	cleanupTenant(t, pool, idA)
	cleanupTenant(t, pool, idB)

	base := tenantdb.NewPGStore()
	reg := tenantdb.DefaultRegistry()

	storeA, err := tenantdb.NewScopedStore(idA, base, reg)
	require.NoError(t, err)
	storeB, err := tenantdb.NewScopedStore(idB, base, reg)
	require.NoError(t, err)

	// Tenant A creates a vehicle over an anchored session.
	err = rls.WithTenant(ctx, pool, idA, false, func(ctx context.Context, conn *pgxpool.Conn) error {
		anchored, err := rls.TenantContext(ctx, conn)
		require.NoError(t, err)
		require.Equal(t, idA, anchored)

		created, err := storeA.Create(ctx, conn, "vehicles", tenantdb.Record{
			"vin":   "1FTSW21P34ED12345",
			"plate": "FLT-001",
		})
		require.NoError(t, err)
		assert.Equal(t, idA.String(), created["tenant_id"])
		assert.NotNil(t, created["id"])
		return nil
	})
	require.NoError(t, err)

	t.Run("owner sees the row", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, idA, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			records, err := storeA.FindMany(ctx, conn, "vehicles", nil)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "FLT-001", records[0]["plate"])

			count, err := storeA.Count(ctx, conn, "vehicles", nil)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, idB, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			records, err := storeB.FindMany(ctx, conn, "vehicles", nil)
			require.NoError(t, err)
			assert.Empty(t, records)

			// Singular read of the foreign row reports absence, not denial.
			_, err = storeB.FindOne(ctx, conn, "vehicles", tenantdb.Filter{"vin": "1FTSW21P34ED12345"})
			assert.True(t, tenantdb.IsNotFound(err))
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("other tenant cannot update or delete the row", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, idB, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			_, err := storeB.Update(ctx, conn, "vehicles",
				tenantdb.Filter{"vin": "1FTSW21P34ED12345"},
				tenantdb.Record{"status": "stolen"},
			)
			assert.ErrorIs(t, err, tenantdb.ErrNotFound)

			err = storeB.Delete(ctx, conn, "vehicles", tenantdb.Filter{"vin": "1FTSW21P34ED12345"})
			assert.ErrorIs(t, err, tenantdb.ErrNotFound)
			return nil
		})
		require.NoError(t, err)

		// The row is untouched.
		err = rls.WithTenant(ctx, pool, idA, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			record, err := storeA.FindOne(ctx, conn, "vehicles", tenantdb.Filter{"vin": "1FTSW21P34ED12345"})
			require.NoError(t, err)
			assert.Equal(t, "active", record["status"])
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("hostile filter cannot cross tenants", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, idB, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			records, err := storeB.FindMany(ctx, conn, "vehicles", tenantdb.Filter{
				tenantdb.OpOr: []tenantdb.Filter{
					{"tenant_id": idA.String()},
					{"vin": "1FTSW21P34ED12345"},
				},
			})
			require.NoError(t, err)
			assert.Empty(t, records)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("create cannot assign a foreign tenant", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, idB, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			created, err := storeB.Create(ctx, conn, "vehicles", tenantdb.Record{
				"vin":       "2GCEK19T0Y1234567",
				"plate":     "FLT-002",
				"tenant_id": idA.String(),
			})
			require.NoError(t, err)
			assert.Equal(t, idB.String(), created["tenant_id"])
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("aggregates stay within the tenant", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, idA, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			result, err := storeA.Aggregate(ctx, conn, "vehicles", []tenantdb.Aggregation{
				{Fn: tenantdb.AggCount},
			}, nil)
			require.NoError(t, err)
			assert.EqualValues(t, 1, result["count"])
			return nil
		})
		require.NoError(t, err)
	})
}

func TestIntegration_SessionAnchor(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	id := tenantid.New()

	t.Run("anchor is visible within the session", func(t *testing.T) {
		err := rls.WithTenant(ctx, pool, id, true, func(ctx context.Context, conn *pgxpool.Conn) error {
			anchored, err := rls.TenantContext(ctx, conn)
			require.NoError(t, err)
			assert.Equal(t, id, anchored)

			admin, err := rls.SuperAdmin(ctx, conn)
			require.NoError(t, err)
			assert.True(t, admin)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("fresh checkout gets its own anchor", func(t *testing.T) {
		other := tenantid.New()
		err := rls.WithTenant(ctx, pool, other, false, func(ctx context.Context, conn *pgxpool.Conn) error {
			anchored, err := rls.TenantContext(ctx, conn)
			require.NoError(t, err)
			assert.Equal(t, other, anchored)
			return nil
		})
		require.NoError(t, err)
	})
}
