package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type AttendanceStore struct {
	mu    sync.Mutex
	marks []store.AttendanceRecord
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{}
}

func (s *AttendanceStore) Append(_ context.Context, rec store.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, rec)
	return nil
}

// Marks returns a copy of all recorded marks.  Test-only helper.
func (s *AttendanceStore) Marks() []store.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AttendanceRecord, len(s.marks))
	copy(out, s.marks)
	return out
}
