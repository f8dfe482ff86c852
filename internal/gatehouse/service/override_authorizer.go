package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

// OverrideAuthorizer records a guard's manual authorization.  This path is a
// trusted human decision: it never checks the token's used/expiry state.
type OverrideAuthorizer struct {
	overrides  store.OverrideStore
	attendance store.AttendanceStore
	audit      *AuditLog
	logger     *log.Logger
}

func NewOverrideAuthorizer(overrides store.OverrideStore, attendance store.AttendanceStore, audit *AuditLog, logger *log.Logger) *OverrideAuthorizer {
	return &OverrideAuthorizer{
		overrides:  overrides,
		attendance: attendance,
		audit:      audit,
		logger:     logger,
	}
}

// Authorize writes the override record, an attendance mark when an identity
// is named, and an audit entry referencing the override id.  The override
// record is the primary write; the other two are best-effort.
func (o *OverrideAuthorizer) Authorize(ctx context.Context, guardID string, req types.OverrideRequest) (*store.OverrideRecord, error) {
	guardID = strings.TrimSpace(guardID)
	if guardID == "" {
		return nil, ErrMissingGuardID
	}

	identityID := strings.TrimSpace(req.IdentityID)
	tokenValue := strings.TrimSpace(req.TokenValue)
	if identityID == "" && tokenValue == "" {
		return nil, ErrMissingSubject
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	now := time.Now().UTC()
	rec := store.OverrideRecord{
		ID:         uuid.NewString(),
		GuardID:    guardID,
		ShiftID:    strings.TrimSpace(req.ShiftID),
		IdentityID: identityID,
		TokenValue: tokenValue,
		Note:       strings.TrimSpace(req.Note),
		CreatedAt:  now,
	}
	if err := o.overrides.Append(ctx, rec); err != nil {
		return nil, err
	}

	if identityID != "" {
		if err := o.attendance.Append(ctx, store.AttendanceRecord{
			SessionID:  sessionID,
			IdentityID: identityID,
			EventType:  "override",
			TokenValue: tokenValue,
			CreatedAt:  now,
		}); err != nil {
			o.logger.Printf("override attendance append failed (auth=%s): %v", rec.ID, err)
		}
	}

	o.audit.Record(ctx, store.AuditRecord{
		GuardID:    guardID,
		IdentityID: identityID,
		TokenValue: tokenValue,
		Authorized: true,
		Reason:     "manual_override",
		SessionID:  sessionID,
		OverrideID: rec.ID,
		CreatedAt:  now,
	})

	return &rec, nil
}
