package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// OpenMemoryDB opens a private in-memory sqlite database that is closed when the test ends.
// If schema is not empty it is executed first.
func OpenMemoryDB(t testing.TB, schema string) *sql.DB {
	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	sqlite.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlite.Close() })

	if schema != "" {
		_, err = sqlite.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
	}
	return sqlite
}

// Context returns a context that is cancelled after timeout or when the test ends.
func Context(t testing.TB, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
