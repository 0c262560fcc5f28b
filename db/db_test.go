package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/dart-tournament/db"
	"github.com/Dosada05/dart-tournament/db/dbtest"
)

func TestMigrateSQLite(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	ctx := context.Background()

	// second run is a no-op
	if err := db.Migrate(ctx, conn, db.DriverSQLite); err != nil {
		t.Fatalf("Migrate twice: %v", err)
	}

	for _, table := range []string{"players", "tournaments", "participants", "matches", "score_history"} {
		var name string
		err := conn.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateUnsupportedDriver(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	if err := db.Migrate(context.Background(), conn, "mysql"); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestConnectUnsupportedDriver(t *testing.T) {
	if _, err := db.Connect("mysql", "x", time.Second); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
