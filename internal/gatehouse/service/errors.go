package service

import (
	"errors"
	"fmt"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

var (
	ErrMissingTokenValue = errors.New("token_value is required")
	ErrMissingIdentityID = errors.New("identity_id is required")
	ErrMissingSubject    = errors.New("identity_id or token_value is required")
	ErrMissingGuardID    = errors.New("guard_id is required")

	// ErrShiftNotFound: no shift matches, or nothing is active to end.
	ErrShiftNotFound = errors.New("no matching active shift")

	// ErrShiftOwnership: the shift exists but belongs to a different guard.
	ErrShiftOwnership = errors.New("shift belongs to another guard")

	// ErrShiftAlreadyEnded: the shift was already closed.
	ErrShiftAlreadyEnded = errors.New("shift already ended")

	// ErrBadCredentials covers unknown guard and wrong secret alike, so the
	// response does not leak which guard ids exist.
	ErrBadCredentials = errors.New("unknown guard or wrong secret")

	// ErrGuardMisconfigured: the guard exists but has no stored credential
	// hash.  Operational misconfiguration, not an authentication failure.
	ErrGuardMisconfigured = errors.New("guard has no stored credential hash")
)

// ShiftConflictError reports a refused shift start and carries the active
// shift that blocked it.
type ShiftConflictError struct {
	Existing store.ShiftRecord
}

func (e *ShiftConflictError) Error() string {
	return fmt.Sprintf("guard %s already has active shift %s", e.Existing.GuardID, e.Existing.ID)
}
