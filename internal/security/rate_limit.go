package security

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gatherhub/ticketing/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a redis-backed fixed-window counter. It sits in front of the
// gate-scan endpoint so a stolen scanner session cannot brute-force ticket
// tokens.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: redisClient, limit: limit, window: window}
}

func (r *RateLimiter) Middleware(prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := middleware.BuyerEmail(c)
			if id == "" {
				id = c.RealIP()
			}
			key := fmt.Sprintf("ratelimit:%s:%s", prefix, id)

			ctx := c.Request().Context()
			count, err := r.redis.Incr(ctx, key).Result()
			if err != nil {
				// Redis being down must not take the gate down with it.
				return next(c)
			}
			if count == 1 {
				r.redis.Expire(ctx, key, r.window)
			}
			if count > r.limit {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			}

			return next(c)
		}
	}
}
