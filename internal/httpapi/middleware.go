package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
)

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s dur=%s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

type claimsKey struct{}

// requireGuard admits only requests carrying a valid guard claim as a
// bearer token and puts the parsed claims on the request context.
func requireGuard(verifier *service.GuardVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing_claim", "guard claim required")
			return
		}

		claims, err := verifier.ParseClaim(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_claim", "guard claim invalid or expired")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

func guardClaims(r *http.Request) *service.GuardClaims {
	claims, _ := r.Context().Value(claimsKey{}).(*service.GuardClaims)
	return claims
}
