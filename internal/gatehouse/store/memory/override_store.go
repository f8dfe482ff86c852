package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type OverrideStore struct {
	mu        sync.Mutex
	overrides []store.OverrideRecord
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{}
}

func (s *OverrideStore) Append(_ context.Context, rec store.OverrideRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, rec)
	return nil
}

// Overrides returns a copy of all recorded overrides.  Test-only helper.
func (s *OverrideStore) Overrides() []store.OverrideRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.OverrideRecord, len(s.overrides))
	copy(out, s.overrides)
	return out
}
