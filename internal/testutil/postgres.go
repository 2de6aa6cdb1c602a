// Package testutil provides shared test infrastructure: a disposable
// PostgreSQL instance with pgvector, migrated to the current schema.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aquasense/aquasense/db"
	"github.com/aquasense/aquasense/internal/log"
)

// TestDB is a migrated PostgreSQL test instance.
type TestDB struct {
	Pool    *pgxpool.Pool
	ConnStr string
}

// SetupPostgres starts a pgvector-enabled PostgreSQL container, runs the
// embedded migrations, and returns a ready connection pool. The container
// is terminated via t.Cleanup.
//
// Tests are skipped when Docker is unavailable (CI without a daemon, or
// AQUASENSE_SKIP_DOCKER_TESTS set).
func SetupPostgres(t *testing.T) *TestDB {
	t.Helper()

	if os.Getenv("AQUASENSE_SKIP_DOCKER_TESTS") != "" {
		t.Skip("docker-backed tests disabled")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("aquasense_test"),
		postgres.WithUsername("aquasense_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := db.Migrate(connStr, log.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping database: %v", err)
	}
	return &TestDB{Pool: pool, ConnStr: connStr}
}
