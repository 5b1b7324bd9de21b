// Package testutil chứa helpers cho repository tests chạy trên Postgres thật.
// Các test này bị skip khi TEST_DATABASE_URL không được set
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/infrastructure/migrate"
)

const DatabaseURLEnv = "TEST_DATABASE_URL"

// tables theo thứ tự TRUNCATE an toàn với FK (CASCADE vẫn được dùng)
var tables = []string{
	"librarians", "library_books", "libraries",
	"comments", "posts", "books", "authors", "users",
}

// Postgres apply migrations, truncate mọi bảng và trả về pool sạch cho test
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(DatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping Postgres integration test", DatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := migrate.Open(ctx, dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	runner, err := migrate.NewEmbeddedRunner(sqlDB)
	require.NoError(t, err)
	_, err = runner.Up(ctx)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, table := range tables {
		_, err := pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err)
	}
	return pool
}
