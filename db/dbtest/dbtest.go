// Package dbtest provides a migrated in-memory SQLite database for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/dart-tournament/db"
)

// NewSQLite opens a private shared-cache in-memory database, applies every migration
// and closes it when the test ends.
func NewSQLite(tb testing.TB) *sql.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	conn, err := db.Connect(db.DriverSQLite, dsn, 5*time.Second)
	if err != nil {
		tb.Fatalf("dbtest: connect: %v", err)
	}
	tb.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(context.Background(), conn, db.DriverSQLite); err != nil {
		tb.Fatalf("dbtest: migrate: %v", err)
	}
	return conn
}
