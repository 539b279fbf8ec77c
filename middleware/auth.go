/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       Credential extraction middleware pulling the bearer
             token from the Authorization header. The token is the
             credential the admission controller (C3) hashes to
             derive a budget — there is no backend identity lookup.
Root Cause:  Sprint task — ingress credential handling.
Context:     Security-critical; every admitted request must carry
             a resolvable credential before it reaches C3.
Suitability: L4 model required for auth middleware design.
──────────────────────────────────────────────────────────────
*/

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

// CredentialContextKey stores the extracted credential in request context.
const CredentialContextKey contextKey = "credential"

// AuthMiddleware extracts the bearer credential used for rate-limit
// admission. A header that is absent or not "Bearer "-prefixed is
// malformed, not merely missing — it is rejected here with 401 rather
// than forwarded as a raw credential. The scheme is matched
// case-insensitively, so "bearer <token>" is accepted as well.
type AuthMiddleware struct {
	headerKey string
}

// NewAuthMiddleware creates a new credential-extraction middleware.
func NewAuthMiddleware(headerKey string) *AuthMiddleware {
	if headerKey == "" {
		headerKey = "Authorization"
	}
	return &AuthMiddleware{headerKey: headerKey}
}

// Handler returns the middleware handler function.
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get(am.headerKey)

		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Missing or invalid Authorization header"})
			return
		}
		credential := authHeader[len("bearer "):]

		ctx := context.WithValue(r.Context(), CredentialContextKey, credential)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCredential extracts the credential from the request context.
func GetCredential(ctx context.Context) string {
	if v, ok := ctx.Value(CredentialContextKey).(string); ok {
		return v
	}
	return ""
}
