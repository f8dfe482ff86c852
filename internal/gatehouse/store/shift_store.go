package store

import (
	"context"
	"time"
)

type ShiftRecord struct {
	ID        string
	GuardID   string
	StartedAt time.Time
	EndedAt   *time.Time
	Active    bool
	Notes     string
}

// StartOutcome reports an atomic shift-start attempt.  Exactly one of
// Created/Existing is set: Existing carries the blocking active shift when
// the start was refused.
type StartOutcome struct {
	Created  *ShiftRecord
	Existing *ShiftRecord
}

// ShiftStore persists guard shifts.  Start must perform its
// "no active shift" check and the insert inside one atomic step so that two
// racing starts for the same guard cannot both create an active shift.
type ShiftStore interface {
	// Start creates a new active shift for the guard unless one already
	// exists.  With force set, the check is skipped and a second active
	// shift is created (operator error recovery).
	Start(ctx context.Context, guardID, notes string, force bool, now time.Time) (StartOutcome, error)

	// End atomically closes the shift (ended_at=now, active=false).
	// Returns (nil, nil) when the shift does not exist or is already ended.
	End(ctx context.Context, shiftID, notes string, now time.Time) (*ShiftRecord, error)

	// ByID returns a shift, (nil, nil) when absent.
	ByID(ctx context.Context, shiftID string) (*ShiftRecord, error)

	// ActiveByGuard returns the guard's active shifts, newest start first.
	ActiveByGuard(ctx context.Context, guardID string) ([]ShiftRecord, error)
}
