package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/memory"
)

func newGuardVerifier(t *testing.T, guards ...store.Guard) *service.GuardVerifier {
	t.Helper()

	directory := memory.NewDirectoryStore()
	for _, g := range guards {
		directory.AddGuard(g)
	}
	return service.NewGuardVerifier(directory, []byte("test-signing-secret"), time.Hour)
}

func hashSecret(t *testing.T, secret string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthenticate_IssuesParseableClaim(t *testing.T) {
	v := newGuardVerifier(t, store.Guard{
		ID:             "guard-001",
		DisplayName:    "Sam Porter",
		CredentialHash: hashSecret(t, "correct horse"),
	})

	signed, guard, expiresAt, err := v.Authenticate(context.Background(), "guard-001", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "guard-001", guard.ID)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := v.ParseClaim(signed)
	require.NoError(t, err)
	assert.Equal(t, "guard-001", claims.GuardID)
	assert.Equal(t, "Sam Porter", claims.DisplayName)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	v := newGuardVerifier(t, store.Guard{
		ID:             "guard-001",
		CredentialHash: hashSecret(t, "correct horse"),
	})

	_, _, _, err := v.Authenticate(context.Background(), "guard-001", "battery staple")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestAuthenticate_UnknownGuard(t *testing.T) {
	v := newGuardVerifier(t)

	_, _, _, err := v.Authenticate(context.Background(), "guard-404", "whatever")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestAuthenticate_MissingHashIsMisconfiguration(t *testing.T) {
	v := newGuardVerifier(t, store.Guard{ID: "guard-001", DisplayName: "No Hash"})

	_, _, _, err := v.Authenticate(context.Background(), "guard-001", "anything")
	assert.ErrorIs(t, err, service.ErrGuardMisconfigured,
		"a provisioning gap is not the caller's fault")
}

func TestAuthenticate_MissingInput(t *testing.T) {
	v := newGuardVerifier(t)
	ctx := context.Background()

	_, _, _, err := v.Authenticate(ctx, "", "secret")
	assert.ErrorIs(t, err, service.ErrMissingGuardID)

	_, _, _, err = v.Authenticate(ctx, "guard-001", "")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestParseClaim_RejectsGarbage(t *testing.T) {
	v := newGuardVerifier(t)

	_, err := v.ParseClaim("not.a.jwt")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestParseClaim_RejectsForeignSignature(t *testing.T) {
	directory := memory.NewDirectoryStore()
	directory.AddGuard(store.Guard{
		ID:             "guard-001",
		CredentialHash: hashSecret(t, "secret"),
	})

	issuer := service.NewGuardVerifier(directory, []byte("key-one"), time.Hour)
	other := service.NewGuardVerifier(directory, []byte("key-two"), time.Hour)

	signed, _, _, err := issuer.Authenticate(context.Background(), "guard-001", "secret")
	require.NoError(t, err)

	_, err = other.ParseClaim(signed)
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestParseClaim_RejectsExpiredClaim(t *testing.T) {
	secret := []byte("test-signing-secret")
	v := service.NewGuardVerifier(memory.NewDirectoryStore(), secret, time.Hour)

	// Sign a claim that expired an hour ago with the verifier's own key.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, service.GuardClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		GuardID: "guard-001",
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)

	_, err = v.ParseClaim(signed)
	assert.ErrorIs(t, err, service.ErrBadCredentials)
}
