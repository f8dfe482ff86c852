package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

const defaultClaimTTL = 8 * time.Hour

// GuardClaims is the signed, time-bounded claim a guard receives after
// authenticating.  It is the only credential the shift and override paths
// accept.
type GuardClaims struct {
	jwt.RegisteredClaims
	GuardID     string `json:"guard_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// GuardVerifier checks guard secrets against their stored bcrypt hashes and
// issues HS256-signed claims.
type GuardVerifier struct {
	directory store.DirectoryStore
	secret    []byte
	ttl       time.Duration
}

func NewGuardVerifier(directory store.DirectoryStore, signingSecret []byte, ttl time.Duration) *GuardVerifier {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &GuardVerifier{directory: directory, secret: signingSecret, ttl: ttl}
}

// Authenticate verifies the guard's secret and returns a signed claim plus
// its expiry.  An unknown guard and a wrong secret both yield
// ErrBadCredentials; a guard row with no stored hash is
// ErrGuardMisconfigured and should surface as a server-side fault.
func (g *GuardVerifier) Authenticate(ctx context.Context, guardID, secret string) (string, *store.Guard, time.Time, error) {
	guardID = strings.TrimSpace(guardID)
	if guardID == "" {
		return "", nil, time.Time{}, ErrMissingGuardID
	}
	if secret == "" {
		return "", nil, time.Time{}, ErrBadCredentials
	}

	guard, err := g.directory.Guard(ctx, guardID)
	if err != nil {
		return "", nil, time.Time{}, err
	}
	if guard == nil {
		return "", nil, time.Time{}, ErrBadCredentials
	}
	if guard.CredentialHash == "" {
		return "", nil, time.Time{}, ErrGuardMisconfigured
	}

	if err := bcrypt.CompareHashAndPassword([]byte(guard.CredentialHash), []byte(secret)); err != nil {
		return "", nil, time.Time{}, ErrBadCredentials
	}

	now := time.Now().UTC()
	expiresAt := now.Add(g.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, GuardClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		GuardID:     guard.ID,
		DisplayName: guard.DisplayName,
	})

	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", nil, time.Time{}, err
	}
	return signed, guard, expiresAt, nil
}

// ParseClaim validates a presented claim and returns its contents.
// Any parse or signature failure is ErrBadCredentials.
func (g *GuardVerifier) ParseClaim(tokenString string) (*GuardClaims, error) {
	claims := &GuardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid || claims.GuardID == "" {
		return nil, ErrBadCredentials
	}
	return claims, nil
}
