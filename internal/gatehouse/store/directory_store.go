package store

import "context"

// Identity is a person who may present a token at a checkpoint.
// Read-only to the server; provisioning is an administrative concern.
type Identity struct {
	ID          string
	DisplayName string
	Role        string // student | teacher | admin
}

// Guard is a person who can authenticate and run shifts/overrides.
// CredentialHash is opaque here; only the credential verifier interprets it.
type Guard struct {
	ID             string
	DisplayName    string
	CredentialHash string
}

// DirectoryStore looks up the people referenced by tokens and claims.
type DirectoryStore interface {
	// Identity returns (nil, nil) when absent.
	Identity(ctx context.Context, id string) (*Identity, error)

	// Guard returns (nil, nil) when absent.
	Guard(ctx context.Context, id string) (*Guard, error)
}
