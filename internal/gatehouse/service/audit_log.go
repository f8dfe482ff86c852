package service

import (
	"context"
	"log"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// HistoryMaxLimit caps how many entries a single history query returns.
const HistoryMaxLimit = 500

const historyDefaultLimit = 100

// AuditLog records authorization decisions and serves the history query.
// Record is best-effort relative to the primary decision: an append failure
// is logged and never propagated, so a committed claim still reports success
// even when the audit trail is briefly unavailable.
type AuditLog struct {
	store     store.AuditStore
	directory store.DirectoryStore
	logger    *log.Logger
}

func NewAuditLog(st store.AuditStore, directory store.DirectoryStore, logger *log.Logger) *AuditLog {
	return &AuditLog{store: st, directory: directory, logger: logger}
}

// Record appends one decision.  The display name is resolved from the
// directory when missing; that lookup is best-effort and a failure leaves
// the field empty.
func (l *AuditLog) Record(ctx context.Context, rec store.AuditRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if rec.DisplayName == "" && rec.IdentityID != "" {
		if ident, err := l.directory.Identity(ctx, rec.IdentityID); err == nil && ident != nil {
			rec.DisplayName = ident.DisplayName
		}
	}

	if err := l.store.Append(ctx, rec); err != nil {
		l.logger.Printf("audit append failed (reason=%s authorized=%t): %v",
			rec.Reason, rec.Authorized, err)
	}
}

// History returns up to limit entries, newest first.  Non-positive limits
// fall back to a default; limits above HistoryMaxLimit are clamped.
func (l *AuditLog) History(ctx context.Context, limit int) ([]store.AuditRecord, error) {
	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > HistoryMaxLimit {
		limit = HistoryMaxLimit
	}
	return l.store.History(ctx, limit)
}
