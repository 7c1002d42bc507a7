package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 4096

// RateLimit throttles requests per client IP with a token bucket. Idle
// clients fall out of the LRU instead of being swept by a goroutine. The key
// is gin's ClientIP, so the engine's trusted proxies decide whether
// X-Forwarded-For counts.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	limit := rate.Limit(float64(perMinute) / 60)

	return func(c *gin.Context) {
		key := c.ClientIP()
		l, ok := limiters.Get(key)
		if !ok {
			l = rate.NewLimiter(limit, burst)
			// Another request may have raced us; keep whichever got in first.
			if prev, found, _ := limiters.PeekOrAdd(key, l); found {
				l = prev
			}
		}
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "request was throttled"})
			return
		}
		c.Next()
	}
}
