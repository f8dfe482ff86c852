package store

import (
	"context"
	"time"
)

// OverrideRecord is a guard's manual authorization, immutable once created.
type OverrideRecord struct {
	ID         string
	GuardID    string
	ShiftID    string
	IdentityID string
	TokenValue string
	Note       string
	CreatedAt  time.Time
}

type OverrideStore interface {
	Append(ctx context.Context, rec OverrideRecord) error
}
