package auth

import (
	"context"
	"net/http"
	"strings"

	"nassets/internal/core"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// Middleware resolves the bearer token and stores the authenticated user
// id in the request context. Requests without a valid token get 401.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			unauthorized(w)
			return
		}

		userID, err := t.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user id set by Middleware.
func UserIDFromContext(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(userIDKey).(int64)
	if !ok || id <= 0 {
		return 0, core.ErrUnauthenticated
	}
	return id, nil
}

// WithUserID is a test hook for handlers that expect an authenticated
// context without running the middleware.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"could not validate credentials"}`))
}
