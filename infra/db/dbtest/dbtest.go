// Package dbtest provides throwaway databases for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/infra/db"
)

// New opens a migrated in-memory SQLite database closed at test cleanup.
func New(t testing.TB) *db.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), config.DatabaseConfig{
		Driver: db.DriverSQLite,
		DSN:    ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := conn.Migrate(context.Background()); err != nil {
		conn.Close()
		t.Fatalf("failed to initialize test schema: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}
