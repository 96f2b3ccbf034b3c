package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RateLimitContextKey is the context key for the remaining-quota snapshot.
const RateLimitContextKey contextKey = "rate_limit"

// RateLimitConfig configures the per-user send quotas.
type RateLimitConfig struct {
	// PerMinute is the number of sends allowed per user per minute.
	PerMinute int

	// PerHour is the number of sends allowed per user per hour.
	PerHour int

	// CleanupInterval is how often idle user entries are evicted.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns the stock quotas.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerMinute:       30,
		PerHour:         300,
		CleanupInterval: 5 * time.Minute,
	}
}

// RateLimitInfo is the quota snapshot exposed to clients after a request
// is counted. Remaining is the smaller of the two window remainders;
// ResetAt is when the binding window rolls over.
type RateLimitInfo struct {
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// fixedWindow counts requests inside one aligned time window.
type fixedWindow struct {
	start time.Time
	count int
}

func (w *fixedWindow) take(now time.Time, size time.Duration, limit int) (remaining int, resetAt time.Time, ok bool) {
	if now.Sub(w.start) >= size {
		w.start = now.Truncate(size)
		w.count = 0
	}
	resetAt = w.start.Add(size)
	if w.count >= limit {
		return 0, resetAt, false
	}
	w.count++
	return limit - w.count, resetAt, true
}

type userWindows struct {
	mu       sync.Mutex
	minute   fixedWindow
	hour     fixedWindow
	lastSeen time.Time
}

// UserRateLimiter enforces per-user fixed-window quotas on the send
// endpoints. Windows are minute- and hour-aligned; both must have room
// for a request to pass, and a passing request is counted against both.
type UserRateLimiter struct {
	cfg   RateLimitConfig
	mu    sync.Mutex
	users map[uuid.UUID]*userWindows
	stop  chan struct{}
	now   func() time.Time
}

// NewUserRateLimiter creates a limiter and starts its cleanup loop.
func NewUserRateLimiter(cfg RateLimitConfig) *UserRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	l := &UserRateLimiter{
		cfg:   cfg,
		users: make(map[uuid.UUID]*userWindows),
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	go l.cleanup()
	return l
}

// Take counts one request against userID's quotas. When either window is
// exhausted the request is not counted and ok is false; the returned
// info then describes the exhausted window.
func (l *UserRateLimiter) Take(userID uuid.UUID) (RateLimitInfo, bool) {
	now := l.now()

	// The user lock is taken before the map lock is released so cleanup
	// cannot evict the entry between the lookup and the count.
	l.mu.Lock()
	user, exists := l.users[userID]
	if !exists {
		user = &userWindows{}
		l.users[userID] = user
	}
	user.mu.Lock()
	l.mu.Unlock()

	defer user.mu.Unlock()
	user.lastSeen = now

	// Peek the hour window first so a minute-window pass is not counted
	// when the hour is already spent.
	if user.hour.count >= l.cfg.PerHour && now.Sub(user.hour.start) < time.Hour {
		return RateLimitInfo{Remaining: 0, ResetAt: user.hour.start.Add(time.Hour)}, false
	}

	minRemaining, minReset, ok := user.minute.take(now, time.Minute, l.cfg.PerMinute)
	if !ok {
		return RateLimitInfo{Remaining: 0, ResetAt: minReset}, false
	}
	hourRemaining, hourReset, _ := user.hour.take(now, time.Hour, l.cfg.PerHour)

	info := RateLimitInfo{Remaining: minRemaining, ResetAt: minReset}
	if hourRemaining < minRemaining {
		info = RateLimitInfo{Remaining: hourRemaining, ResetAt: hourReset}
	}
	return info, true
}

func (l *UserRateLimiter) cleanup() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle(l.now().Add(-time.Hour))
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops users whose last request predates cutoff. Lock order
// matches Take (map lock, then user lock) so an in-flight Take either
// finishes against the live entry or finds it already gone.
func (l *UserRateLimiter) evictIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, user := range l.users {
		user.mu.Lock()
		if user.lastSeen.Before(cutoff) {
			delete(l.users, id)
		}
		user.mu.Unlock()
	}
}

// Stop stops the cleanup goroutine.
func (l *UserRateLimiter) Stop() {
	close(l.stop)
}

// Middleware enforces the quota for the authenticated user. Must run
// after BearerAuth; unauthenticated requests pass through untouched so
// the auth middleware's 401 wins.
func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		info, ok := l.Take(user.ID)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.PerMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(info.ResetAt, l.now())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"success":    false,
				"message":    "rate limit exceeded",
				"rate_limit": info,
			})
			return
		}

		ctx := context.WithValue(r.Context(), RateLimitContextKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRateLimitInfo retrieves the quota snapshot stored by the limiter,
// so handlers can echo it in success responses.
func GetRateLimitInfo(ctx context.Context) *RateLimitInfo {
	if info, ok := ctx.Value(RateLimitContextKey).(RateLimitInfo); ok {
		return &info
	}
	return nil
}

func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
