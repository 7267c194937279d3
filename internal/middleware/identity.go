package middleware

import (
	"context"
	"net/http"
	"strings"
)

// HeaderUserID is set by the upstream auth provider. Requests without it are
// anonymous.
const HeaderUserID = "X-User-ID"

type ctxKey int

const userIDKey ctxKey = iota

// Identity copies the caller's user id from the request header into the
// context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
