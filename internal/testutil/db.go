// Package testutil provides shared fixtures for package tests: a migrated
// sqlite user store and user builders.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brickfund/platform/internal/db"
	"github.com/jmoiron/sqlx"
)

// MustOpenDB returns a migrated sqlite database in the test's temp dir.
// The database is closed when the test finishes.
func MustOpenDB(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Init(ctx, "sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = db.RunMigrations(ctx, database.DB, "sqlite")
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return database
}
