package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the correlation id on requests and responses.
	RequestIDHeader = "X-Request-ID"

	// RequestIDContextKey is the context key for the correlation id.
	RequestIDContextKey contextKey = "request_id"
)

// RequestID tags every request with a correlation id. A well-formed
// X-Request-ID supplied by an upstream proxy is reused; anything else
// is replaced with a fresh uuid so callers cannot inject arbitrary
// strings into the logs. The id is echoed on the response and stored
// in the request context for the error writer.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation id from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}
