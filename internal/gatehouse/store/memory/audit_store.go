package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// AuditStore is an in-memory append-only decision log for tests and dev.
type AuditStore struct {
	mu      sync.Mutex
	entries []store.AuditRecord
}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Append(_ context.Context, rec store.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, rec)
	return nil
}

func (s *AuditStore) History(_ context.Context, limit int) ([]store.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.AuditRecord, len(s.entries))
	copy(out, s.entries)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns a copy of all recorded entries.  Test-only helper.
func (s *AuditStore) Entries() []store.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditRecord, len(s.entries))
	copy(out, s.entries)
	return out
}
