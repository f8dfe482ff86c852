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

type AttendanceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendanceStore(db *sql.DB, writer *dbpkg.Worker) *AttendanceStore {
	return &AttendanceStore{db: db, writer: writer}
}

func (s *AttendanceStore) Append(ctx context.Context, rec store.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendance_marks(
  mark_id, session_id, identity_id, event_type, token_value, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.SessionID, rec.IdentityID, rec.EventType,
			nullIfEmpty(rec.TokenValue), rec.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}
