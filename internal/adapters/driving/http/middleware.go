package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Context keys
type contextKey string

const userContextKey contextKey = "user"

// userHeader carries the caller identity. Authentication itself is an
// external concern; whatever sits in front of this service resolves
// the user and forwards it here.
const userHeader = "X-User"

// RequireUser rejects requests without a caller identity and stores
// the user id in the request context
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := strings.TrimSpace(r.Header.Get(userHeader))
			if user == "" {
				writeError(w, http.StatusUnauthorized, "missing X-User header")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom returns the caller identity stored by RequireUser
func userFrom(r *http.Request) string {
	user, _ := r.Context().Value(userContextKey).(string)
	return user
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs every request with method, path, status and duration
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
