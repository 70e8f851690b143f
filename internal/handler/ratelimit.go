package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitPeriod = time.Minute

// RateCounter é o subconjunto do cliente Redis usado pelo limitador.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter limita requisições por IP dentro de uma janela de um minuto.
// Sem Redis (counter nil) ou com Redis fora do ar, a requisição passa.
func RateLimiter(counter RateCounter, limit int, scope string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "rate_limit:" + scope + ":" + c.ClientIP()
		count, err := counter.Incr(c.Request.Context(), key).Result()
		if err != nil {
			log.Warn("rate limiter indisponível", "key", key, "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := counter.Expire(c.Request.Context(), key, rateLimitPeriod).Err(); err != nil {
				log.Warn("falha ao definir expiração do rate limit", "key", key, "error", err)
			}
		}

		if count > int64(limit) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Muitas requisições. Tente novamente em instantes."})
			return
		}
		c.Next()
	}
}
