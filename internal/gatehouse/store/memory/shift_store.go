package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// ShiftStore holds shifts in a map; Start performs its check-and-insert
// under one lock so racing starts for the same guard serialize.
type ShiftStore struct {
	mu     sync.Mutex
	shifts map[string]store.ShiftRecord
}

func NewShiftStore() *ShiftStore {
	return &ShiftStore{shifts: make(map[string]store.ShiftRecord)}
}

func (s *ShiftStore) Start(_ context.Context, guardID, notes string, force bool, now time.Time) (store.StartOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		if existing := s.latestActiveLocked(guardID); existing != nil {
			return store.StartOutcome{Existing: existing}, nil
		}
	}

	rec := store.ShiftRecord{
		ID:        uuid.NewString(),
		GuardID:   guardID,
		StartedAt: now.UTC(),
		Active:    true,
		Notes:     notes,
	}
	s.shifts[rec.ID] = rec
	cp := rec
	return store.StartOutcome{Created: &cp}, nil
}

func (s *ShiftStore) End(_ context.Context, shiftID, notes string, now time.Time) (*store.ShiftRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.shifts[shiftID]
	if !ok || !rec.Active || rec.EndedAt != nil {
		return nil, nil
	}

	endedAt := now.UTC()
	rec.EndedAt = &endedAt
	rec.Active = false
	if notes != "" {
		rec.Notes = notes
	}
	s.shifts[shiftID] = rec

	cp := rec
	return &cp, nil
}

func (s *ShiftStore) ByID(_ context.Context, shiftID string) (*store.ShiftRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.shifts[shiftID]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (s *ShiftStore) ActiveByGuard(_ context.Context, guardID string) ([]store.ShiftRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeByGuardLocked(guardID), nil
}

func (s *ShiftStore) activeByGuardLocked(guardID string) []store.ShiftRecord {
	var out []store.ShiftRecord
	for _, rec := range s.shifts {
		if rec.GuardID == guardID && rec.Active && rec.EndedAt == nil {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *ShiftStore) latestActiveLocked(guardID string) *store.ShiftRecord {
	active := s.activeByGuardLocked(guardID)
	if len(active) == 0 {
		return nil
	}
	cp := active[0]
	return &cp
}
