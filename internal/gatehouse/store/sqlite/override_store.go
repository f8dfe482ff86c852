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

type OverrideStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewOverrideStore(db *sql.DB, writer *dbpkg.Worker) *OverrideStore {
	return &OverrideStore{db: db, writer: writer}
}

func (s *OverrideStore) Append(ctx context.Context, rec store.OverrideRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO overrides(
  override_id, guard_id, shift_id, identity_id, token_value, note, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.GuardID, nullIfEmpty(rec.ShiftID),
			nullIfEmpty(rec.IdentityID), nullIfEmpty(rec.TokenValue),
			rec.Note, rec.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}
