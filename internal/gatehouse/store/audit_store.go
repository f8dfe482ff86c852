package store

import (
	"context"
	"time"
)

// AuditRecord is one immutable authorization decision.
type AuditRecord struct {
	ID          string
	GuardID     string
	IdentityID  string
	DisplayName string
	TokenValue  string
	Authorized  bool
	Reason      string
	SessionID   string
	OverrideID  string
	CreatedAt   time.Time
}

// AuditStore is the append-only decision log.  Rows are never updated or
// deleted.
type AuditStore interface {
	Append(ctx context.Context, rec AuditRecord) error

	// History returns up to limit entries, newest first.  Ordering is by
	// CreatedAt descending with ID descending as the deterministic tie-break.
	History(ctx context.Context, limit int) ([]AuditRecord, error)
}
