package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
// Visitors idle for longer than idle are evicted by a sweep that runs at
// most once per idle period.
type RateLimiter struct {
	limiters  map[string]*visitor
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*visitor),
		rate:      rate.Every(every),
		burst:     burst,
		idle:      10 * time.Minute,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// NewStrictRateLimiter is meant for login/register: 5 attempts, then one
// more every 12 seconds.
func NewStrictRateLimiter() *RateLimiter {
	return NewRateLimiter(12*time.Second, 5)
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idle {
		rl.evictIdleLocked(now)
	}

	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) evictIdleLocked(now time.Time) {
	for k, v := range rl.limiters {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.limiters, k)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			utils.RespondError(c, http.StatusTooManyRequests, "Too many attempts, please wait a moment and try again")
			c.Abort()
			return
		}
		c.Next()
	}
}
