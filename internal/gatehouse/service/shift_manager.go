package service

import (
	"context"
	"strings"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// ShiftManager drives the per-guard shift lifecycle: NoActiveShift → Active
// → Ended, terminal.  The at-most-one-active invariant is enforced by the
// store's atomic start, never by a read-then-write here.
type ShiftManager struct {
	shifts store.ShiftStore
	audit  *AuditLog
}

func NewShiftManager(shifts store.ShiftStore, audit *AuditLog) *ShiftManager {
	return &ShiftManager{shifts: shifts, audit: audit}
}

// StartShift opens a new active shift.  If the guard already has one and
// force is not set, a *ShiftConflictError carrying the existing shift is
// returned.  force creates a second active shift (operator error recovery)
// and is still atomic against concurrent starts.
func (m *ShiftManager) StartShift(ctx context.Context, guardID, notes string, force bool) (*store.ShiftRecord, error) {
	guardID = strings.TrimSpace(guardID)
	if guardID == "" {
		return nil, ErrMissingGuardID
	}

	out, err := m.shifts.Start(ctx, guardID, notes, force, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if out.Existing != nil {
		return nil, &ShiftConflictError{Existing: *out.Existing}
	}

	m.audit.Record(ctx, store.AuditRecord{
		GuardID:    guardID,
		Authorized: true,
		Reason:     "shift_started",
		CreatedAt:  out.Created.StartedAt,
	})
	return out.Created, nil
}

// EndShift closes a shift.  With an explicit shiftID, the shift must belong
// to the guard and still be active.  Without one, the guard's most recently
// started active shift is closed; having none to close is ErrShiftNotFound,
// not a silent no-op.
func (m *ShiftManager) EndShift(ctx context.Context, guardID, shiftID, notes string) (*store.ShiftRecord, error) {
	guardID = strings.TrimSpace(guardID)
	if guardID == "" {
		return nil, ErrMissingGuardID
	}
	now := time.Now().UTC()

	shiftID = strings.TrimSpace(shiftID)
	if shiftID != "" {
		rec, err := m.shifts.ByID(ctx, shiftID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrShiftNotFound
		}
		if rec.GuardID != guardID {
			return nil, ErrShiftOwnership
		}
		if !rec.Active || rec.EndedAt != nil {
			return nil, ErrShiftAlreadyEnded
		}
	} else {
		active, err := m.shifts.ActiveByGuard(ctx, guardID)
		if err != nil {
			return nil, err
		}
		if len(active) == 0 {
			return nil, ErrShiftNotFound
		}
		// ActiveByGuard orders newest start first.
		shiftID = active[0].ID
	}

	ended, err := m.shifts.End(ctx, shiftID, notes, now)
	if err != nil {
		return nil, err
	}
	if ended == nil {
		// Raced with another end between lookup and close.
		return nil, ErrShiftAlreadyEnded
	}

	m.audit.Record(ctx, store.AuditRecord{
		GuardID:    guardID,
		Authorized: true,
		Reason:     "shift_ended",
		CreatedAt:  *ended.EndedAt,
	})
	return ended, nil
}
