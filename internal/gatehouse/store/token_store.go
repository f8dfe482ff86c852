package store

import (
	"context"
	"time"
)

// TokenRecord is the canonical shape for an access token regardless of how
// the row was looked up (by value or by identity).
type TokenRecord struct {
	Value      string
	IdentityID string
	CreatedAt  time.Time
	ExpiresAt  *time.Time // nil = no expiry
	Used       bool
	UsedAt     *time.Time
}

// Expired reports whether the token's deadline has passed relative to now.
func (r *TokenRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// ClaimOutcome is the result of an atomic claim attempt.  When the claim
// does not commit, Snapshot holds the latest state of the record (nil if the
// record does not exist) so the caller can classify the refusal precisely.
type ClaimOutcome struct {
	Committed bool
	Snapshot  *TokenRecord
}

// TokenStore persists access tokens.  Claim is the only mutating path for
// the used flag and must be race-free: for any token value, at most one
// concurrent Claim commits.
type TokenStore interface {
	// FindByValue resolves a token by its opaque value.
	// Returns (nil, nil) when absent.
	FindByValue(ctx context.Context, value string) (*TokenRecord, error)

	// FindByIdentity returns all tokens bound to an identity,
	// newest first.  Used by the legacy verify path.
	FindByIdentity(ctx context.Context, identityID string) ([]TokenRecord, error)

	// Claim atomically marks the token used at now.  It refuses to commit
	// when the record is missing, already used, or expired relative to now;
	// the outcome carries the latest snapshot either way.
	Claim(ctx context.Context, value string, now time.Time) (ClaimOutcome, error)

	// Put inserts or replaces a token record.  Provisioning/testing path.
	Put(ctx context.Context, rec TokenRecord) error

	// PurgeExpiredBefore deletes tokens whose expiry passed before cutoff.
	// Housekeeping only; never touches unexpired or non-expiring tokens.
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
