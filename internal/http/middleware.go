package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
)

type contextKey string

const (
	sessionContextKey   contextKey = "session"
	requestIDContextKey contextKey = "request_id"
)

// SessionMiddleware requires the platform session cookie and carries it
// through the request context so handlers can forward it upstream
// verbatim. Validation happens upstream; an unauthenticated session just
// gets the platform's own failure envelope back.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		if cookie == "" {
			respondError(w, http.StatusUnauthorized, "missing session cookie")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, platform.Session(cookie))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) platform.Session {
	if sess, ok := ctx.Value(sessionContextKey).(platform.Session); ok {
		return sess
	}
	return ""
}
