package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/praxislegal/praxis/internal/domain"
)

// UserContextKey is the context key for the authenticated user.
const UserContextKey contextKey = "user"

// BearerAuth authenticates requests with an Authorization: Bearer token,
// resolving it through the identity service and storing the user in the
// request context. Requests with no token, a malformed header, or an
// unknown token are rejected with 401 before reaching any handler.
func BearerAuth(identity domain.IdentityService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondJSON(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := identity.AuthenticateToken(r.Context(), token)
			if err != nil {
				if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
					logger.Error("token authentication failed",
						"error", err, "request_id", GetRequestID(r.Context()))
					respondJSON(w, http.StatusInternalServerError, "an unexpected error occurred")
					return
				}
				respondJSON(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// GetUserFromContext retrieves the authenticated user from the context.
// Returns nil when the request did not pass through BearerAuth.
func GetUserFromContext(ctx context.Context) *domain.UserIdentity {
	if user, ok := ctx.Value(UserContextKey).(*domain.UserIdentity); ok {
		return user
	}
	return nil
}
