package middleware

import (
	"strconv" // String conversions
	"sync"    // Mutex for the limiter map
	"time"    // Idle windows and tickers

	"loyalty_points/internal/apperrors" // Application errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/time/rate"     // Token bucket limiter
)

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst per client
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

// Cleanup forgets clients idle for longer than the idle window
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idle)
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// Middleware limits requests per authenticated user, or per client IP before authentication.
// A nil limiter lets every request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if userID, ok := c.Get(UserIDKey); ok {
			if id, ok := userID.(uint); ok {
				key = "user:" + strconv.FormatUint(uint64(id), 10)
			}
		}
		if !rl.Allow(key) {
			logrus.WithFields(logrus.Fields{
				"key":    key,
				"path":   c.FullPath(),
				"method": c.Request.Method,
			}).Warn("Rate limit exceeded")
			abortWithError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// abortWithError stops the chain with the JSON error envelope for err
func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.Status, gin.H{"error": err.Message})
}
