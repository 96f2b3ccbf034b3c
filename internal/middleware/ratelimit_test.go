package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislegal/praxis/internal/domain"
)

// newTestLimiter builds a limiter with a controllable clock and no
// cleanup goroutine.
func newTestLimiter(cfg RateLimitConfig, start time.Time) (*UserRateLimiter, *time.Time) {
	current := start
	l := &UserRateLimiter{
		cfg:   cfg,
		users: make(map[uuid.UUID]*userWindows),
		stop:  make(chan struct{}),
		now:   func() time.Time { return current },
	}
	return l, &current
}

func TestTake_MinuteWindow(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(RateLimitConfig{PerMinute: 2, PerHour: 100}, start)
	user := uuid.New()

	info, ok := l.Take(user)
	require.True(t, ok)
	assert.Equal(t, 1, info.Remaining)

	info, ok = l.Take(user)
	require.True(t, ok)
	assert.Equal(t, 0, info.Remaining)

	info, ok = l.Take(user)
	assert.False(t, ok, "third request inside the minute is rejected")
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, start.Add(time.Minute), info.ResetAt)

	// The window rolls over and requests pass again.
	*clock = start.Add(61 * time.Second)
	_, ok = l.Take(user)
	assert.True(t, ok)
}

func TestTake_HourWindowBinds(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(RateLimitConfig{PerMinute: 10, PerHour: 3}, start)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		_, ok := l.Take(user)
		require.True(t, ok)
	}

	info, ok := l.Take(user)
	assert.False(t, ok)
	assert.Equal(t, 0, info.Remaining)

	// A fresh minute does not help when the hour quota is spent.
	*clock = start.Add(2 * time.Minute)
	_, ok = l.Take(user)
	assert.False(t, ok, "hour quota still binds after the minute window resets")

	*clock = start.Add(61 * time.Minute)
	_, ok = l.Take(user)
	assert.True(t, ok)
}

func TestTake_RejectedRequestNotCounted(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(RateLimitConfig{PerMinute: 1, PerHour: 100}, start)
	user := uuid.New()

	_, ok := l.Take(user)
	require.True(t, ok)

	// Hammering while limited must not extend the penalty.
	for i := 0; i < 10; i++ {
		_, ok = l.Take(user)
		assert.False(t, ok)
	}

	*clock = start.Add(time.Minute)
	_, ok = l.Take(user)
	assert.True(t, ok)
}

func TestTake_UsersAreIndependent(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l, _ := newTestLimiter(RateLimitConfig{PerMinute: 1, PerHour: 100}, start)

	alice, bob := uuid.New(), uuid.New()

	_, ok := l.Take(alice)
	require.True(t, ok)
	_, ok = l.Take(alice)
	require.False(t, ok)

	_, ok = l.Take(bob)
	assert.True(t, ok, "one user's exhausted quota must not affect another")
}

func TestEvictIdle(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l, clock := newTestLimiter(RateLimitConfig{PerMinute: 1, PerHour: 100}, start)

	idle, active := uuid.New(), uuid.New()
	_, ok := l.Take(idle)
	require.True(t, ok)

	*clock = start.Add(90 * time.Minute)
	_, ok = l.Take(active)
	require.True(t, ok)

	l.evictIdle(clock.Add(-time.Hour))

	assert.NotContains(t, l.users, idle)
	assert.Contains(t, l.users, active, "recently seen users survive eviction")

	// The evicted user starts over with a fresh window.
	_, ok = l.Take(idle)
	assert.True(t, ok)
}

func TestRateLimitMiddleware_PassesWithoutUser(t *testing.T) {
	l := NewUserRateLimiter(RateLimitConfig{PerMinute: 1, PerHour: 1})
	defer l.Stop()

	called := false
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.True(t, called, "unauthenticated requests fall through to the auth rejection")
}

func TestRateLimitMiddleware_SetsHeaders(t *testing.T) {
	l := NewUserRateLimiter(RateLimitConfig{PerMinute: 5, PerHour: 100})
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := GetRateLimitInfo(r.Context())
		require.NotNil(t, info)
		w.WriteHeader(http.StatusOK)
	}))

	user := &domain.UserIdentity{ID: uuid.New()}
	req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserContextKey, user))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}
