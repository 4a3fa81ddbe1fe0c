package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/licensedesk/api/internal/enum"
)

// APIKeyHeader is the alternative to an Authorization bearer token.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests that do not carry apiKey, either as
// "Authorization: Bearer <key>" or in the X-API-Key header. An empty apiKey
// fails closed with 500 so a misconfigured server never runs open.
func RequireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				writeError(w, http.StatusInternalServerError, enum.ReasonServerMisconfigured, "server API key is not configured")
				return
			}

			token := RequestAPIKey(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, enum.ReasonUnauthorized, "missing API key")
				return
			}
			if !KeyMatches(apiKey, token) {
				writeError(w, http.StatusUnauthorized, enum.ReasonUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestAPIKey extracts the presented key from r, preferring the
// Authorization header.
func RequestAPIKey(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}

// KeyMatches compares keys in constant time. An empty expected key never
// matches.
func KeyMatches(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   reason,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
