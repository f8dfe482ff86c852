package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/memory"
)

type shiftFixture struct {
	manager *service.ShiftManager
	shifts  *memory.ShiftStore
	audit   *memory.AuditStore
}

func newShiftFixture(t *testing.T) *shiftFixture {
	t.Helper()

	shifts := memory.NewShiftStore()
	audit := memory.NewAuditStore()
	auditLog := service.NewAuditLog(audit, memory.NewDirectoryStore(), silentLogger())
	return &shiftFixture{
		manager: service.NewShiftManager(shifts, auditLog),
		shifts:  shifts,
		audit:   audit,
	}
}

func TestStartShift_CreatesActiveShift(t *testing.T) {
	f := newShiftFixture(t)

	shift, err := f.manager.StartShift(context.Background(), "guard-001", "morning", false)
	require.NoError(t, err)

	assert.Equal(t, "guard-001", shift.GuardID)
	assert.True(t, shift.Active)
	assert.Nil(t, shift.EndedAt)
	assert.Equal(t, "morning", shift.Notes)

	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "shift_started", entries[0].Reason)
	assert.Equal(t, "guard-001", entries[0].GuardID)
}

func TestStartShift_SecondStartConflicts(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	first, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)

	_, err = f.manager.StartShift(ctx, "guard-001", "", false)
	var conflict *service.ShiftConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.Existing.ID, "conflict references the blocking shift")
}

func TestStartShift_ForceAllowsSecondActive(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	_, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)

	forced, err := f.manager.StartShift(ctx, "guard-001", "recovery", true)
	require.NoError(t, err)
	assert.True(t, forced.Active)

	active, err := f.shifts.ActiveByGuard(ctx, "guard-001")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestStartShift_MissingGuardID(t *testing.T) {
	f := newShiftFixture(t)

	_, err := f.manager.StartShift(context.Background(), " ", "", false)
	assert.ErrorIs(t, err, service.ErrMissingGuardID)
}

// Among simultaneous racers without force, exactly one start wins and at
// most one shift is left active.
func TestStartShift_ConcurrentStarts_OneWinner(t *testing.T) {
	f := newShiftFixture(t)

	const racers = 10
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.manager.StartShift(context.Background(), "guard-001", "", false)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var conflict *service.ShiftConflictError
		require.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, winners, "exactly one concurrent start may succeed")

	active, err := f.shifts.ActiveByGuard(context.Background(), "guard-001")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestEndShift_ByID(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	shift, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)

	ended, err := f.manager.EndShift(ctx, "guard-001", shift.ID, "handoff")
	require.NoError(t, err)
	assert.Equal(t, shift.ID, ended.ID)
	assert.False(t, ended.Active)
	require.NotNil(t, ended.EndedAt)

	entries := f.audit.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "shift_ended", entries[1].Reason)
}

func TestEndShift_OwnershipMismatch(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	shift, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)

	_, err = f.manager.EndShift(ctx, "guard-002", shift.ID, "")
	assert.ErrorIs(t, err, service.ErrShiftOwnership)

	// The shift is untouched.
	rec, lookupErr := f.shifts.ByID(ctx, shift.ID)
	require.NoError(t, lookupErr)
	assert.True(t, rec.Active)
}

func TestEndShift_NoShiftID_EndsMostRecentlyStarted(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	older, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)
	newer, err := f.manager.StartShift(ctx, "guard-001", "", true)
	require.NoError(t, err)

	ended, err := f.manager.EndShift(ctx, "guard-001", "", "")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, ended.ID, "latest start is closed first")

	rec, lookupErr := f.shifts.ByID(ctx, older.ID)
	require.NoError(t, lookupErr)
	assert.True(t, rec.Active, "the older shift stays active")
}

func TestEndShift_NothingActive_NotFound(t *testing.T) {
	f := newShiftFixture(t)

	_, err := f.manager.EndShift(context.Background(), "guard-001", "", "")
	assert.ErrorIs(t, err, service.ErrShiftNotFound)
}

func TestEndShift_UnknownShiftID_NotFound(t *testing.T) {
	f := newShiftFixture(t)

	_, err := f.manager.EndShift(context.Background(), "guard-001", "no-such-shift", "")
	assert.ErrorIs(t, err, service.ErrShiftNotFound)
}

func TestEndShift_AlreadyEnded_Conflict(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	shift, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)
	_, err = f.manager.EndShift(ctx, "guard-001", shift.ID, "")
	require.NoError(t, err)

	_, err = f.manager.EndShift(ctx, "guard-001", shift.ID, "")
	assert.ErrorIs(t, err, service.ErrShiftAlreadyEnded)
}

func TestShiftLifecycle_EndThenStartAgain(t *testing.T) {
	f := newShiftFixture(t)
	ctx := context.Background()

	first, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)
	_, err = f.manager.EndShift(ctx, "guard-001", first.ID, "")
	require.NoError(t, err)

	second, err := f.manager.StartShift(ctx, "guard-001", "", false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "ended shifts are never reopened")
}
