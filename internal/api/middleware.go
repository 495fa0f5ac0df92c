/**
 * @description
 * Authentication middleware for the billing-service. Callers are board
 * automations holding a static internal API key, so the middleware checks a
 * shared-secret header rather than a user-facing token.
 */
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// InternalAuthMiddleware rejects requests whose X-Internal-Api-Key header
// does not match the configured key.
func InternalAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get("X-Internal-Api-Key"))
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
