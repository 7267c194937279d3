package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/lexacademy/checkout/internal/config"
)

// HeaderAPIKey carries the back-office key on order-persistence routes
const HeaderAPIKey = "api_key"

// APIKeyAuth guards the order-persistence routes. The key is compared in
// constant time against every configured key.
func APIKeyAuth(cfg config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(HeaderAPIKey)

			if apiKey == "" {
				writeAuthError(w, http.StatusUnauthorized, "API key required")
				return
			}

			valid := false
			for _, validKey := range cfg.APIKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
					valid = true
				}
			}

			if !valid {
				writeAuthError(w, http.StatusForbidden, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
