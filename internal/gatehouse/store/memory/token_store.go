package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// TokenStore keeps tokens in a map keyed by value.  The mutex around Claim
// gives the same at-most-one-commit guarantee the SQLite writer provides.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]store.TokenRecord
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]store.TokenRecord)}
}

func (s *TokenStore) FindByValue(_ context.Context, value string) (*store.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[value]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (s *TokenStore) FindByIdentity(_ context.Context, identityID string) ([]store.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.TokenRecord
	for _, rec := range s.tokens {
		if rec.IdentityID == identityID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

func (s *TokenStore) Claim(_ context.Context, value string, now time.Time) (store.ClaimOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[value]
	if !ok {
		return store.ClaimOutcome{}, nil
	}

	if rec.Used || rec.Expired(now) {
		cp := rec
		return store.ClaimOutcome{Snapshot: &cp}, nil
	}

	usedAt := now.UTC()
	rec.Used = true
	rec.UsedAt = &usedAt
	s.tokens[value] = rec

	cp := rec
	return store.ClaimOutcome{Committed: true, Snapshot: &cp}, nil
}

func (s *TokenStore) Put(_ context.Context, rec store.TokenRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[rec.Value] = rec
	return nil
}

func (s *TokenStore) PurgeExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for v, rec := range s.tokens {
		if rec.ExpiresAt != nil && rec.ExpiresAt.Before(cutoff) {
			delete(s.tokens, v)
			deleted++
		}
	}
	return deleted, nil
}
