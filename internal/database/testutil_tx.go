package database

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testPoolErr  error
)

// testDatabaseURL returns TEST_DATABASE_URL, or starts a disposable PostgreSQL
// container when TEST_INTEGRATION is set. ok is false when neither is available.
func testDatabaseURL(ctx context.Context) (url string, ok bool, err error) {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url, true, nil
	}
	if os.Getenv("TEST_INTEGRATION") == "" {
		return "", false, nil
	}

	// The container is reaped by testcontainers when the test binary exits.
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("subshare_test"),
		postgres.WithUsername("subshare"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to start postgres container: %w", err)
	}

	url, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", false, fmt.Errorf("failed to get container connection string: %w", err)
	}
	return url, true, nil
}

// TestPool returns a shared database connection pool for testing.
// The pool is created once and reused across all tests in the package, with
// migrations applied on first use. Skips the test when no database is configured.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_DATABASE_URL") == "" && os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("TEST_DATABASE_URL and TEST_INTEGRATION not set, skipping integration test")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()

		url, _, err := testDatabaseURL(ctx)
		if err != nil {
			testPoolErr = err
			return
		}

		testPool, testPoolErr = Connect(ctx, url)
		if testPoolErr != nil {
			return
		}

		testPoolErr = RunMigrations(ctx, testPool)
	})

	if testPoolErr != nil {
		t.Fatalf("failed to setup test database: %v", testPoolErr)
	}

	return testPool
}

// TestTx returns a database transaction for testing.
// The transaction is rolled back when the test completes, so tests stay
// isolated without table cleanup and can run in parallel.
//
// Usage:
//
//	tx := database.TestTx(t)
//	repo := repository.NewListingRepository(tx)
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	pool := TestPool(t)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}
