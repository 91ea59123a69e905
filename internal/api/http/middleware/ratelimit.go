package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

const limiterCleanupPeriod = 5 * time.Minute

// KeyFunc extracts the key requests are grouped by for rate limiting.
type KeyFunc func(c *gin.Context) string

// ByClientIP groups requests by client address.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByPrincipal groups requests by authenticated user, falling back to the client address.
func ByPrincipal(contextManager model.ContextManager) KeyFunc {
	return func(c *gin.Context) string {
		if principal, ok := contextManager.GetPrincipalFromContext(c.Request.Context()); ok {
			return "user:" + principal.UserID.String()
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimit is a keyed token bucket limiter.
type RateLimit struct {
	limiters sync.Map // map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	keyFunc  KeyFunc
	logger   *logger.Logger

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewRateLimit allows requests per window for each key, all of them available as a burst.
func NewRateLimit(requests int, window time.Duration, keyFunc KeyFunc, logger *logger.Logger) *RateLimit {
	return &RateLimit{
		limit:       rate.Limit(float64(requests) / window.Seconds()),
		burst:       requests,
		keyFunc:     keyFunc,
		logger:      logger,
		lastCleanup: time.Now(),
	}
}

func (rl *RateLimit) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	rl.maybeCleanup(key)
	l, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.limit, rl.burst))

	return l.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket refilled, i.e. idle keys.
// The key being served is never dropped.
func (rl *RateLimit) maybeCleanup(serving string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < limiterCleanupPeriod {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if key == serving {
			return true
		}
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// Handle answers 429 with Retry-After once the key's bucket is empty.
func (rl *RateLimit) Handle(c *gin.Context) {
	key := rl.keyFunc(c)
	if key == "" {
		c.Next()
		return
	}

	l := rl.limiter(key)
	if !l.Allow() {
		reservation := l.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		retryAfter := max(int(delay.Seconds()), 1)
		c.Header("Retry-After", strconv.Itoa(retryAfter))

		rl.logger.Warn("Rate limit: request rejected", "key", key, "path", c.Request.URL.Path, "retry_after", retryAfter)
		abort(c, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
		return
	}

	c.Next()
}
