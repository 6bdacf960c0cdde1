// Package testutil opens a migrated Postgres pool for adapter tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripsync/tripsync-api/internal/adapters/postgres"
	"github.com/tripsync/tripsync-api/internal/adapters/postgres/migrate"
)

// OpenMigratedPool connects to DATABASE_URL_TEST, applies migrations and returns a pool that is
// closed when the test ends. The test is skipped when the variable is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL_TEST")
	if dsn == "" {
		t.Skip("DATABASE_URL_TEST not set")
	}
	ctx := context.Background()

	db, err := migrate.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open migrate db: %v", err)
	}
	if _, err := migrate.Up(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("migrate up: %v", err)
	}
	_ = db.Close()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
