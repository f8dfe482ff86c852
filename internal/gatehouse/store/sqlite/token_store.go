package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/gatehouse-project/gatehouse/internal/db"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type TokenStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTokenStore(db *sql.DB, writer *dbpkg.Worker) *TokenStore {
	return &TokenStore{db: db, writer: writer}
}

const tokenColumns = `token_value, identity_id, created_at_ms, expires_at_ms, used, used_at_ms`

func (s *TokenStore) FindByValue(ctx context.Context, value string) (*store.TokenRecord, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
SELECT `+tokenColumns+`
FROM access_tokens
WHERE token_value = ?;`, value)

	rec, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByValue query: %w", err)
	}
	return rec, nil
}

func (s *TokenStore) FindByIdentity(ctx context.Context, identityID string) ([]store.TokenRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+tokenColumns+`
FROM access_tokens
WHERE identity_id = ?
ORDER BY created_at_ms DESC, token_value;`, identityID)
	if err != nil {
		return nil, fmt.Errorf("FindByIdentity query: %w", err)
	}
	defer rows.Close()

	var out []store.TokenRecord
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("FindByIdentity scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Claim runs the read-check-update inside one writer transaction.  The
// writer serializes all write transactions, so for any token value at most
// one concurrent Claim observes an unused, unexpired record and commits the
// update.  Losers get the post-commit snapshot for classification.
func (s *TokenStore) Claim(ctx context.Context, value string, now time.Time) (store.ClaimOutcome, error) {
	value = strings.TrimSpace(value)

	var out store.ClaimOutcome
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
SELECT `+tokenColumns+`
FROM access_tokens
WHERE token_value = ?;`, value)

		rec, err := scanToken(row)
		if err == sql.ErrNoRows {
			out = store.ClaimOutcome{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("Claim select: %w", err)
		}

		out.Snapshot = rec
		if rec.Used || rec.Expired(now) {
			return nil
		}

		usedAt := now.UTC()
		if _, err := tx.ExecContext(ctx, `
UPDATE access_tokens
SET used = 1, used_at_ms = ?
WHERE token_value = ?;`, usedAt.UnixMilli(), value); err != nil {
			return fmt.Errorf("Claim update: %w", err)
		}

		claimed := *rec
		claimed.Used = true
		claimed.UsedAt = &usedAt
		out = store.ClaimOutcome{Committed: true, Snapshot: &claimed}
		return nil
	})
	if err != nil {
		return store.ClaimOutcome{}, err
	}
	return out, nil
}

func (s *TokenStore) Put(ctx context.Context, rec store.TokenRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var expiresMs any
	if rec.ExpiresAt != nil {
		expiresMs = rec.ExpiresAt.UTC().UnixMilli()
	}
	var usedAtMs any
	if rec.UsedAt != nil {
		usedAtMs = rec.UsedAt.UTC().UnixMilli()
	}
	var used int
	if rec.Used {
		used = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT OR REPLACE INTO access_tokens(
  token_value, identity_id, created_at_ms, expires_at_ms, used, used_at_ms
) VALUES (?, ?, ?, ?, ?, ?);`,
			rec.Value, rec.IdentityID, rec.CreatedAt.UTC().UnixMilli(),
			expiresMs, used, usedAtMs,
		); err != nil {
			return fmt.Errorf("Put insert: %w", err)
		}
		return nil
	})
}

// PurgeExpiredBefore deletes token rows whose deadline passed before cutoff.
// Uses the expiry column directly; tokens without expiry are never touched.
func (s *TokenStore) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM access_tokens
WHERE expires_at_ms IS NOT NULL AND expires_at_ms < ?;`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PurgeExpiredBefore: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(r rowScanner) (*store.TokenRecord, error) {
	var (
		rec       store.TokenRecord
		createdMs int64
		expiresMs sql.NullInt64
		used      int
		usedAtMs  sql.NullInt64
	)
	if err := r.Scan(&rec.Value, &rec.IdentityID, &createdMs, &expiresMs, &used, &usedAtMs); err != nil {
		return nil, err
	}

	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	if expiresMs.Valid {
		t := time.UnixMilli(expiresMs.Int64).UTC()
		rec.ExpiresAt = &t
	}
	rec.Used = used == 1
	if usedAtMs.Valid {
		t := time.UnixMilli(usedAtMs.Int64).UTC()
		rec.UsedAt = &t
	}
	return &rec, nil
}
