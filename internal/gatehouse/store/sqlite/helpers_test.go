package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gatehouse-project/gatehouse/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedIdentity inserts an identity row so token FK constraints are satisfied.
func seedIdentity(t *testing.T, conn *sql.DB, identityID string) {
	t.Helper()
	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT OR IGNORE INTO identities(identity_id, display_name, role, created_at_ms)
VALUES (?, ?, 'student', ?);`, identityID, "Test "+identityID, nowMs)
	if err != nil {
		t.Fatalf("seedIdentity(%s): %v", identityID, err)
	}
}

// seedGuard inserts a guard row so shift/override FK constraints are satisfied.
func seedGuard(t *testing.T, conn *sql.DB, guardID string) {
	t.Helper()
	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT OR IGNORE INTO guards(guard_id, display_name, credential_hash, created_at_ms)
VALUES (?, ?, '', ?);`, guardID, "Guard "+guardID, nowMs)
	if err != nil {
		t.Fatalf("seedGuard(%s): %v", guardID, err)
	}
}
