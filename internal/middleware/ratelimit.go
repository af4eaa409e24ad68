package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterTTL is how long an idle client's bucket is kept.
const limiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit gives every API key (or client IP, before auth) a token bucket of
// rps tokens per second up to burst. Each research request can hold the
// provider for minutes, so the defaults are low. Rejected requests get 429
// with a Retry-After hint.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		clients   = make(map[string]*clientLimiter)
		lastSweep time.Time
	)

	return func(c *gin.Context) {
		id := c.ClientIP()
		if key, ok := c.Get(ContextKeyAPIKey); ok {
			id = key.(string)
		}

		now := time.Now()
		mu.Lock()
		if now.Sub(lastSweep) > limiterTTL {
			for k, cl := range clients {
				if now.Sub(cl.lastSeen) > limiterTTL {
					delete(clients, k)
				}
			}
			lastSweep = now
		}
		cl, ok := clients[id]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[id] = cl
		}
		cl.lastSeen = now
		mu.Unlock()

		if !cl.limiter.AllowN(now, 1) {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rps)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(rps float64) int {
	if rps <= 0 {
		return 60
	}
	return int(math.Ceil(1 / rps))
}
