package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter hands out one token bucket per key (user id or client IP).
type KeyedRateLimiter struct {
	limiters map[string]*entry
	mu       sync.Mutex
	r        rate.Limit // requests per second
	b        int        // burst
	idleTTL  time.Duration
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		r:        r,
		b:        b,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (k *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	e, exists := k.limiters[key]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(k.r, k.b)}
		k.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Sweep drops limiters that have been idle for longer than the idle TTL.
func (k *KeyedRateLimiter) Sweep() {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-k.idleTTL)
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

func (k *KeyedRateLimiter) retryAfterSeconds() int {
	if k.r <= 0 || k.r == rate.Inf {
		return 1
	}
	return int(math.Ceil(1 / float64(k.r)))
}

func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// RateLimitByUser limits requests per authenticated user, falling back to the client IP
// when no user is on the context.
func RateLimitByUser(limiter *KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserIDFromContext(r.Context())
			if !ok {
				key = "ip:" + clientIP(r)
			}

			l := limiter.GetLimiter(key)
			if !l.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(limiter.retryAfterSeconds()))
				response.TooManyRequests(w, "Too many attendance requests, please slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
