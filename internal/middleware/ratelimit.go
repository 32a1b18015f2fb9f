package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
)

// NewRateLimiter returns a fixed-window limiter backed by Redis: at most
// cfg.Max requests per client IP within cfg.Window.  The counter key is
// INCRed per request and expires with the window, so limits are shared
// across all instances of the API.  When Redis is unavailable (nil client
// or command error) the limiter fails open and lets the request through.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := cfg.Prefix + ":ip:" + ip
			ctx := c.Request().Context()

			pipe := rdb.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, cfg.Window)
			if _, err := pipe.Exec(ctx); err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
				}
				return next(c)
			}

			count := incr.Val()
			remaining := int64(cfg.Max) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Max) {
				retry := cfg.Window
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retry = ttl
				}
				secs := int(retry / time.Second)
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"success": false,
					"message": "Demasiadas solicitudes desde esta IP, intenta de nuevo más tarde",
				})
			}
			return next(c)
		}
	}
}
