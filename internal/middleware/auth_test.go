package middleware_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/middleware"
)

type stubIdentity struct {
	user *domain.UserIdentity
}

func (s *stubIdentity) AuthenticateToken(_ context.Context, token string) (*domain.UserIdentity, error) {
	if token == "good-token" {
		return s.user, nil
	}
	return nil, domain.Unauthorized("identity.authenticate", "invalid or expired token")
}

func authHandler(t *testing.T, identity domain.IdentityService) (http.Handler, *bool, **domain.UserIdentity) {
	t.Helper()

	called := false
	var seen *domain.UserIdentity

	h := middleware.BearerAuth(identity, slog.New(slog.DiscardHandler))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			seen = middleware.GetUserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	return h, &called, &seen
}

func TestBearerAuth_ValidToken(t *testing.T) {
	user := &domain.UserIdentity{ID: uuid.New(), Email: "attorney@acmelaw.test"}
	h, called, seen := authHandler(t, &stubIdentity{user: user})

	req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *called)
	require.NotNil(t, *seen)
	assert.Equal(t, user.ID, (*seen).ID)
}

func TestBearerAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "unknown token", header: "Bearer bad-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, called, _ := authHandler(t, &stubIdentity{})

			req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, *called, "handler must not run for rejected requests")

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	assert.Nil(t, middleware.GetUserFromContext(context.Background()))
}
