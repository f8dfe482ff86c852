package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// DirectoryStore reads identities and guards.  Read-only: provisioning is
// done by the dev seeder or external administrative tooling.
type DirectoryStore struct {
	db *sql.DB
}

func NewDirectoryStore(db *sql.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

func (s *DirectoryStore) Identity(ctx context.Context, id string) (*store.Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	var ident store.Identity
	err := s.db.QueryRowContext(ctx, `
SELECT identity_id, display_name, role
FROM identities
WHERE identity_id = ?;`, id).Scan(&ident.ID, &ident.DisplayName, &ident.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Identity query: %w", err)
	}
	return &ident, nil
}

func (s *DirectoryStore) Guard(ctx context.Context, id string) (*store.Guard, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	var g store.Guard
	err := s.db.QueryRowContext(ctx, `
SELECT guard_id, display_name, credential_hash
FROM guards
WHERE guard_id = ?;`, id).Scan(&g.ID, &g.DisplayName, &g.CredentialHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Guard query: %w", err)
	}
	return &g, nil
}
