package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hexaosint/api/internal/config"
)

// RateLimit throttles a route per client IP with a fixed redis window.
// When redis is unreachable the limiter fails open: availability over
// throttling.
func RateLimit(cache *redis.Client, cfg config.RateLimitConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || cache == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())

		count, err := cache.Incr(c.Request.Context(), key).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
			c.Next()
			return
		}
		if count == 1 {
			if err := cache.Expire(c.Request.Context(), key, cfg.Window).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limit expire failed")
			}
		}

		if count > int64(cfg.Requests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limit_exceeded"})
			return
		}

		c.Next()
	}
}
