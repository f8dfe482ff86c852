package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/gatehouse-project/gatehouse/internal/db"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type AuditStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAuditStore(db *sql.DB, writer *dbpkg.Worker) *AuditStore {
	return &AuditStore{db: db, writer: writer}
}

func (s *AuditStore) Append(ctx context.Context, rec store.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var authorized int
	if rec.Authorized {
		authorized = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_entries(
  entry_id, guard_id, identity_id, display_name, token_value,
  authorized, reason, session_id, override_id, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			rec.ID, nullIfEmpty(rec.GuardID), nullIfEmpty(rec.IdentityID),
			nullIfEmpty(rec.DisplayName), nullIfEmpty(rec.TokenValue),
			authorized, rec.Reason, nullIfEmpty(rec.SessionID),
			nullIfEmpty(rec.OverrideID), rec.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}

func (s *AuditStore) History(ctx context.Context, limit int) ([]store.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_id, guard_id, identity_id, display_name, token_value,
       authorized, reason, session_id, override_id, created_at_ms
FROM audit_entries
ORDER BY created_at_ms DESC, entry_id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("History query: %w", err)
	}
	defer rows.Close()

	var out []store.AuditRecord
	for rows.Next() {
		var (
			rec         store.AuditRecord
			guardID     sql.NullString
			identityID  sql.NullString
			displayName sql.NullString
			tokenValue  sql.NullString
			authorized  int
			sessionID   sql.NullString
			overrideID  sql.NullString
			createdMs   int64
		)
		if err := rows.Scan(&rec.ID, &guardID, &identityID, &displayName, &tokenValue,
			&authorized, &rec.Reason, &sessionID, &overrideID, &createdMs); err != nil {
			return nil, fmt.Errorf("History scan: %w", err)
		}
		rec.GuardID = guardID.String
		rec.IdentityID = identityID.String
		rec.DisplayName = displayName.String
		rec.TokenValue = tokenValue.String
		rec.Authorized = authorized == 1
		rec.SessionID = sessionID.String
		rec.OverrideID = overrideID.String
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
