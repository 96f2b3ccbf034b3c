package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize bounds a send request: the attachment budget
	// plus base64 overhead and envelope fields.
	DefaultMaxBodySize = 40 * MB
)

// MaxBodySize limits the size of request bodies.
// If the request body exceeds maxBytes, it returns 413 Request Entity Too Large.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				respondJSON(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			// Declared length can lie; the limited reader is the backstop.
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Common timeout values
const (
	// DefaultTimeout covers a full dispatch including the provider call.
	DefaultTimeout = 30 * time.Second
)

// Timeout adds a deadline to request processing. If the handler doesn't
// complete within the timeout, it returns 503 Service Unavailable.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w, done: done}

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				if !tw.wroteHeader {
					respondJSON(w, http.StatusServiceUnavailable, "request timeout")
				}
				// If the handler already started writing, the client gets
				// a truncated response; nothing better is possible here.
			}
		})
	}
}

// timeoutWriter wraps http.ResponseWriter to track if headers have been written
type timeoutWriter struct {
	http.ResponseWriter
	mu          sync.Mutex
	wroteHeader bool
	done        chan struct{}
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.wroteHeader {
		return
	}

	select {
	case <-tw.done:
		// Already timed out, don't write
		return
	default:
		tw.wroteHeader = true
		tw.ResponseWriter.WriteHeader(code)
	}
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	select {
	case <-tw.done:
		return 0, context.DeadlineExceeded
	default:
		if !tw.wroteHeader {
			tw.wroteHeader = true
			tw.ResponseWriter.WriteHeader(http.StatusOK)
		}
		return tw.ResponseWriter.Write(b)
	}
}
