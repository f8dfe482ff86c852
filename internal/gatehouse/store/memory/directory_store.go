package memory

import (
	"context"
	"sync"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type DirectoryStore struct {
	mu         sync.RWMutex
	identities map[string]store.Identity
	guards     map[string]store.Guard
}

func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{
		identities: make(map[string]store.Identity),
		guards:     make(map[string]store.Guard),
	}
}

func (s *DirectoryStore) AddIdentity(ident store.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[ident.ID] = ident
}

func (s *DirectoryStore) AddGuard(g store.Guard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guards[g.ID] = g
}

func (s *DirectoryStore) Identity(_ context.Context, id string) (*store.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[id]
	if !ok {
		return nil, nil
	}
	cp := ident
	return &cp, nil
}

func (s *DirectoryStore) Guard(_ context.Context, id string) (*store.Guard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guards[id]
	if !ok {
		return nil, nil
	}
	cp := g
	return &cp, nil
}
