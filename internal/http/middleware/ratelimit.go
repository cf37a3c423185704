package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-rfq-backend/internal/auth"
)

const (
	// bucketTTL is how long an idle bucket survives a sweep.
	bucketTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between idle-bucket sweeps.
	sweepEvery = 5000
	// maxRetryAfter caps Retry-After in seconds; a zero rate never refills.
	maxRetryAfter = 3600
)

// KeyFunc maps a request to the identity whose bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByCaller keys authenticated callers by role and user id, so a user acting
// as buyer and as vendor gets two buckets, and everyone else by client IP.
func KeyByCaller() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserID)
		if uid == "" {
			return "ip:" + c.ClientIP()
		}
		role, _ := RoleFrom(c)
		return string(role) + ":" + uid
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per caller. Idle buckets are
// swept every sweepEvery lookups.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	key    KeyFunc
	exempt map[auth.Role]struct{}
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
}

// NewRateLimiter allows rps requests per second with the given burst per key.
// Burst below 1 is raised to 1. Callers holding an exempt role are never
// limited.
func NewRateLimiter(rps float64, burst int, key KeyFunc, exempt ...auth.Role) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	ex := make(map[auth.Role]struct{}, len(exempt))
	for _, r := range exempt {
		ex[r] = struct{}{}
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		key:     key,
		exempt:  ex,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// limiter returns the bucket for key, creating it if needed. The sweep runs
// before the lookup so a stale bucket for key is replaced, not revived.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= bucketTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay, which the limiter serves for free.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler enforces the limit. A limited request gets 429 with Retry-After set
// to the whole seconds until a token is available.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		if role, ok := RoleFrom(c); ok {
			if _, skip := rl.exempt[role]; skip {
				c.Next()
				return
			}
		}

		now := rl.now()
		lim := rl.limiter(rl.key(c), now)
		if lim.AllowN(now, 1) {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfter(lim, now)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": GetRequestID(c),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfter is the wait for the next token in whole seconds, clamped to
// [1, maxRetryAfter].
func retryAfter(lim *rate.Limiter, now time.Time) int {
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return maxRetryAfter
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	if d == rate.InfDuration || d >= maxRetryAfter*time.Second {
		return maxRetryAfter
	}
	if s := int(math.Ceil(d.Seconds())); s > 1 {
		return s
	}
	return 1
}
