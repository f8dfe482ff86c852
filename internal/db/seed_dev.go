package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type SeedDevOptions struct {
	// GuardSecret is the plaintext secret for the seeded dev guard.
	// Defaults to "letmein" when empty.
	GuardSecret string
}

// SeedDev inserts a starter identity, token and guard so a fresh dev
// database can serve validations immediately.  Idempotent.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO identities(identity_id, display_name, role, created_at_ms)
VALUES ('est-001', 'Dev Student', 'student', ?);`, now); err != nil {
		return fmt.Errorf("seed identity: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO access_tokens(token_value, identity_id, created_at_ms)
VALUES ('dev-token-001', 'est-001', ?);`, now); err != nil {
		return fmt.Errorf("seed token: %w", err)
	}

	secret := opt.GuardSecret
	if secret == "" {
		secret = "letmein"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed guard hash: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO guards(guard_id, display_name, credential_hash, created_at_ms)
VALUES ('guard-001', 'Dev Guard', ?, ?)
ON CONFLICT(guard_id) DO UPDATE SET
  display_name = excluded.display_name,
  credential_hash = CASE WHEN guards.credential_hash = '' THEN excluded.credential_hash ELSE guards.credential_hash END;
`, string(hash), now); err != nil {
		return fmt.Errorf("seed guard guard-001: %w", err)
	}

	return nil
}
