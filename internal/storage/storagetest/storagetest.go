// Package storagetest provides migrated in-memory databases for tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/fleetdesk/taxi/internal/storage"
	"github.com/fleetdesk/taxi/orm"
)

// New returns a fully migrated in-memory SQLite database that is closed when
// the test ends.
func New(tb testing.TB) *orm.DB {
	tb.Helper()

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{Dialect: "sqlite", DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(ctx); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return store.DB()
}
