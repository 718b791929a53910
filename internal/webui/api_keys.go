package webui

import "net/http"

// isInvalidAPIKey reports whether key is missing or not one of validKeys.
func isInvalidAPIKey(key string, validKeys []string) bool {
	if key == "" {
		return true
	}
	for _, validKey := range validKeys {
		if key == validKey {
			return false
		}
	}
	return true
}

// requireAPIKey rejects requests whose "key" query parameter is not in
// validKeys. With no keys configured every request passes.
func requireAPIKey(validKeys []string, next http.Handler) http.Handler {
	if len(validKeys) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isInvalidAPIKey(r.URL.Query().Get("key"), validKeys) {
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
