package store

import (
	"context"
	"time"
)

// AttendanceRecord is one checkpoint event tied to a session.
type AttendanceRecord struct {
	ID         string
	SessionID  string
	IdentityID string
	EventType  string
	TokenValue string
	CreatedAt  time.Time
}

// AttendanceStore is append-only.
type AttendanceStore interface {
	Append(ctx context.Context, rec AttendanceRecord) error
}
