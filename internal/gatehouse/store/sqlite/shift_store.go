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

type ShiftStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewShiftStore(db *sql.DB, writer *dbpkg.Worker) *ShiftStore {
	return &ShiftStore{db: db, writer: writer}
}

const shiftColumns = `shift_id, guard_id, started_at_ms, ended_at_ms, active, notes`

// Start checks for an existing active shift and inserts the new one inside
// a single writer transaction, so two racing starts for the same guard
// serialize: the first inserts, the second sees it and reports Existing.
func (s *ShiftStore) Start(ctx context.Context, guardID, notes string, force bool, now time.Time) (store.StartOutcome, error) {
	var out store.StartOutcome
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if !force {
			row := tx.QueryRowContext(ctx, `
SELECT `+shiftColumns+`
FROM guard_shifts
WHERE guard_id = ? AND active = 1 AND ended_at_ms IS NULL
ORDER BY started_at_ms DESC, shift_id DESC
LIMIT 1;`, guardID)

			existing, err := scanShift(row)
			if err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("Start select active: %w", err)
			}
			if existing != nil {
				out = store.StartOutcome{Existing: existing}
				return nil
			}
		}

		rec := store.ShiftRecord{
			ID:        uuid.NewString(),
			GuardID:   guardID,
			StartedAt: now.UTC(),
			Active:    true,
			Notes:     notes,
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO guard_shifts(shift_id, guard_id, started_at_ms, active, notes)
VALUES (?, ?, ?, 1, ?);`,
			rec.ID, rec.GuardID, rec.StartedAt.UnixMilli(), rec.Notes,
		); err != nil {
			return fmt.Errorf("Start insert: %w", err)
		}

		out = store.StartOutcome{Created: &rec}
		return nil
	})
	if err != nil {
		return store.StartOutcome{}, err
	}
	return out, nil
}

// End flips the shift to ended only if it is still active; a shift that is
// already ended (or missing) yields (nil, nil).
func (s *ShiftStore) End(ctx context.Context, shiftID, notes string, now time.Time) (*store.ShiftRecord, error) {
	var ended *store.ShiftRecord
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
SELECT `+shiftColumns+`
FROM guard_shifts
WHERE shift_id = ? AND active = 1 AND ended_at_ms IS NULL;`, shiftID)

		rec, err := scanShift(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("End select: %w", err)
		}

		endedAt := now.UTC()
		newNotes := rec.Notes
		if notes != "" {
			newNotes = notes
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE guard_shifts
SET ended_at_ms = ?, active = 0, notes = ?
WHERE shift_id = ?;`, endedAt.UnixMilli(), newNotes, shiftID); err != nil {
			return fmt.Errorf("End update: %w", err)
		}

		rec.EndedAt = &endedAt
		rec.Active = false
		rec.Notes = newNotes
		ended = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ended, nil
}

func (s *ShiftStore) ByID(ctx context.Context, shiftID string) (*store.ShiftRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+shiftColumns+`
FROM guard_shifts
WHERE shift_id = ?;`, shiftID)

	rec, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ByID query: %w", err)
	}
	return rec, nil
}

func (s *ShiftStore) ActiveByGuard(ctx context.Context, guardID string) ([]store.ShiftRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+shiftColumns+`
FROM guard_shifts
WHERE guard_id = ? AND active = 1 AND ended_at_ms IS NULL
ORDER BY started_at_ms DESC, shift_id DESC;`, guardID)
	if err != nil {
		return nil, fmt.Errorf("ActiveByGuard query: %w", err)
	}
	defer rows.Close()

	var out []store.ShiftRecord
	for rows.Next() {
		rec, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("ActiveByGuard scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanShift(r rowScanner) (*store.ShiftRecord, error) {
	var (
		rec       store.ShiftRecord
		startedMs int64
		endedMs   sql.NullInt64
		active    int
	)
	if err := r.Scan(&rec.ID, &rec.GuardID, &startedMs, &endedMs, &active, &rec.Notes); err != nil {
		return nil, err
	}

	rec.StartedAt = time.UnixMilli(startedMs).UTC()
	if endedMs.Valid {
		t := time.UnixMilli(endedMs.Int64).UTC()
		rec.EndedAt = &t
	}
	rec.Active = active == 1
	return &rec, nil
}
