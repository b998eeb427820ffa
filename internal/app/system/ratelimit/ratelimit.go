// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// New allows burst requests per key, refilled at burst per window.
func New(burst int, window time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(window / time.Duration(burst)),
		burst:   burst,
		idle:    2 * window,
		now:     time.Now,
	}
}

// Allow spends one token for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops buckets idle long enough to have refilled. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// RemoteAddr host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts per client IP and per user id.
type LoginLimiter struct {
	ip   *Limiter
	user *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per user id per
// 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, userLimit int, userWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:   New(ipLimit, ipWindow),
		user: New(userLimit, userWindow),
	}
}

// Check reports whether an attempt for userID from r may proceed, and if not,
// a message for the client.
func (ll *LoginLimiter) Check(r *http.Request, userID string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "too many sign-in attempts; wait a minute and try again"
	}
	if key := userKey(userID); key != "" && !ll.user.Allow(key) {
		return false, "too many sign-in attempts for this account; wait a few minutes"
	}
	return true, ""
}

// ResetUser clears the per-account budget after a successful sign-in.
func (ll *LoginLimiter) ResetUser(userID string) {
	if key := userKey(userID); key != "" {
		ll.user.Reset(key)
	}
}

func userKey(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}
