package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aiinterface/notifier/internal/auth"
)

// RequireBearer returns a middleware that rejects requests whose
// Authorization header does not match the checker's secret. A checker
// without a secret lets everything through.
func RequireBearer(checker *auth.SecretChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if checker.Allow(header) {
				next.ServeHTTP(w, r)
				return
			}

			reason := "invalid_secret"
			if auth.BearerToken(header) == "" {
				reason = "missing_secret"
			}
			logger.Warn("authorization failed",
				slog.String("reason", reason),
				slog.String("ip", getClientIP(r)),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			writeError(w, http.StatusUnauthorized, "Unauthorized")
		})
	}
}

// writeError writes the {"error": msg} body shared by every endpoint.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
